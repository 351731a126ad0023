package ocr

import "fmt"

// PreprocessingError reports an image that could not be decoded or re-encoded.
type PreprocessingError struct {
	Op  string
	Err error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocess %s: %v", e.Op, e.Err)
}

func (e *PreprocessingError) Unwrap() error { return e.Err }

// OcrError reports a failure inside the recognition engine.
type OcrError struct {
	Op  string
	Err error
}

func (e *OcrError) Error() string {
	return fmt.Sprintf("ocr %s: %v", e.Op, e.Err)
}

func (e *OcrError) Unwrap() error { return e.Err }
