package convert

import "errors"

var (
	// ErrMissingWeightFormat is returned when compression-shaping parameters
	// are provided without a weight_format selector.
	ErrMissingWeightFormat = errors.New("some compression parameters are provided, but the weight format is not specified; set weight_format in ov_quant_config")

	// ErrMissingQuantMode is returned when quantization-shaping parameters
	// are provided without a quant_mode selector.
	ErrMissingQuantMode = errors.New("some quantization parameters are provided, but the quant mode is not specified; set quant_mode in ov_quant_config")

	// ErrDatasetRequired is returned when full or mixed-precision
	// quantization is requested without a calibration dataset.
	ErrDatasetRequired = errors.New("dataset is required for full quantization; set dataset in ov_quant_config")

	// ErrNotImplemented marks unsupported combinations, such as
	// mixed-precision quantization of diffusion models or an unrecognized
	// diffusion pipeline class.
	ErrNotImplemented = errors.New("not implemented")

	// ErrComponentsMissing is returned when expected components are absent
	// from the export output.
	ErrComponentsMissing = errors.New("components missing from export output")
)
