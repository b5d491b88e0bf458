package utils

import (
	"io"
	"mime/multipart"
	"net/http"
)

type MultipartResult struct {
	File       string
	Properties Properties
}

type Properties struct {
	Entity string
	Config string
}

// ReadMultiPartForm pulls the uploaded rows file plus the batch properties
// out of a multipart survey upload.
func ReadMultiPartForm(r *http.Request, fileKey string) MultipartResult {
	r.ParseMultipartForm(999999999999999)
	var fileHeader *multipart.FileHeader
	result := MultipartResult{
		File: "",
		Properties: Properties{
			Entity: "",
			Config: "",
		},
	}
	if r.MultipartForm == nil {
		return result
	}
	for key, value := range r.MultipartForm.File {
		if key == fileKey {
			fileHeader = value[0]
		}
	}

	for key, value := range r.MultipartForm.Value {
		if key == "entity" {
			result.Properties.Entity = value[0]
		}

		if key == "config" {
			result.Properties.Config = value[0]
		}
	}

	if fileHeader != nil {

		file, _ := fileHeader.Open()

		defer file.Close()

		fullFile, _ := io.ReadAll(file)

		result.File = string(fullFile)
	}

	return result
}
