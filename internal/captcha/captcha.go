package captcha

import (
	"bytes"
	"fmt"

	"github.com/dchest/captcha"
)

const codeLength = 4

// Producer generates captcha challenge texts and renders them as PNG
// images. Rendering is a presentation concern; the login flow only
// ever compares the text.
type Producer interface {
	CreateText() string
	CreateImage(text string) ([]byte, error)
}

type digitProducer struct {
	width  int
	height int
}

func NewProducer() Producer {
	return &digitProducer{width: captcha.StdWidth, height: captcha.StdHeight}
}

func (p *digitProducer) CreateText() string {
	digits := captcha.RandomDigits(codeLength)
	text := make([]byte, len(digits))
	for i, d := range digits {
		text[i] = '0' + d
	}
	return string(text)
}

func (p *digitProducer) CreateImage(text string) ([]byte, error) {
	digits := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return nil, fmt.Errorf("captcha text must be digits")
		}
		digits[i] = text[i] - '0'
	}
	var buf bytes.Buffer
	if _, err := captcha.NewImage(text, digits, p.width, p.height).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
