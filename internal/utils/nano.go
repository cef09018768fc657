package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

var (
	NanoidSize     = 32
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NanoID returns a url safe id used as the primary key of new proposals.
func NanoID() string {
	return gonanoid.MustGenerate(nanoidAlphabet, NanoidSize)
}
