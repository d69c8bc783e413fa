package opencv

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ValidateMatForOperation rejects empty Mats and Mats that are neither 8-bit
// with one or three channels nor single-channel 32-bit float.
func ValidateMatForOperation(mat gocv.Mat, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV32F:
		return nil
	default:
		return fmt.Errorf("Mat type %v is not supported for operation: %s", mat.Type(), operation)
	}
}
