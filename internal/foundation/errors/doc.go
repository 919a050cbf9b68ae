// Package errors provides classified errors for linkbio.
//
// A ClassifiedError carries a category (validation, not_found, upload, ...),
// a severity that selects the log level, a retry hint and structured context.
// HTTPErrorAdapter turns them into status codes and JSON bodies.
//
//	err := errors.UploadError("image upload failed").
//		WithContext("provider", "cloudinary").
//		Build()
package errors
