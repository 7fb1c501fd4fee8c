package plot

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

// boldFont is the Go Bold face used for the chart title; go-chart's default face has no
// bold variant.
var boldFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gobold.TTF)
})
