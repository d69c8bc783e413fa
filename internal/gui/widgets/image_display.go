package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 360
	ImageAreaHeight = 280
)

// StereoDisplay shows the left view, the right view and the disparity map
// side by side.
type StereoDisplay struct {
	container      fyne.CanvasObject
	leftImage      *canvas.Image
	rightImage     *canvas.Image
	disparityImage *canvas.Image
}

func NewStereoDisplay() *StereoDisplay {
	display := &StereoDisplay{
		leftImage:      newImageCanvas(),
		rightImage:     newImageCanvas(),
		disparityImage: newImageCanvas(),
	}
	display.setupLayout()
	return display
}

func newImageCanvas() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return img
}

func labelled(title string, img *canvas.Image) fyne.CanvasObject {
	return container.NewBorder(
		widget.NewRichTextFromMarkdown("**"+title+"**"),
		nil, nil, nil,
		img,
	)
}

func (sd *StereoDisplay) setupLayout() {
	sd.container = container.NewGridWithColumns(3,
		labelled("Left", sd.leftImage),
		labelled("Right", sd.rightImage),
		labelled("Disparity", sd.disparityImage),
	)
}

func (sd *StereoDisplay) GetContainer() fyne.CanvasObject {
	return sd.container
}

func (sd *StereoDisplay) SetPair(left, right image.Image) {
	setImage(sd.leftImage, left)
	setImage(sd.rightImage, right)
}

func (sd *StereoDisplay) SetDisparity(img image.Image) {
	setImage(sd.disparityImage, img)
}

func setImage(target *canvas.Image, img image.Image) {
	target.Image = img
	target.Refresh()
}
