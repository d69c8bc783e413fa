package opencv

import (
	"fmt"

	"stereo-depth/internal/models"

	"gocv.io/x/gocv"
)

// ReadImage decodes a file with OpenCV, which covers formats the Go
// decoders lack (webp, jp2, pnm and others).
func ReadImage(path string) (*models.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("failed to decode %s with OpenCV", path)
	}

	return MatToImage(mat)
}
