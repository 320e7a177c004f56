package handlers

import "encoding/base64"

const transparentPixelBase64 = "R0lGODlhAQABAPAAAAAAAAAAACH5BAUKAAAALAAAAAABAAEAQAICRAEAOw=="

// transparentPixel is a 1x1 transparent GIF.
var transparentPixel = mustDecode(transparentPixelBase64)

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
