package client

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("client: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface, returning a human-readable
// summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// validateRequest checks a normalized descriptor before any transport
// state is created. The returned *Error carries the matching code from
// the engine's taxonomy.
func (r *Request) validateRequest() *Error {
	if !supportedMethods[r.Method] {
		return errorf(CodeUnsupportedMethod, "%w: %s", ErrUnsupportedMethod, r.Method)
	}

	if err := validate.Struct(r); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return newError(CodeValidation, err)
		}

		var fields FieldErrors
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   verror.Translate(translator),
			})
		}
		return newError(CodeValidation, fields)
	}

	// Exactly one of {no body, body, form fields, upload file} may be
	// active. Download is an independent axis, except that a single call
	// cannot both upload and download files.
	if len(r.FormFields) > 0 {
		if len(r.Body) > 0 {
			return errorf(CodeValidation, "body and form fields are mutually exclusive")
		}
		if r.UploadFilePath != "" {
			return errorf(CodeValidation, "upload file and form fields are mutually exclusive")
		}
		if !r.multipart() {
			return errorf(CodeUnsupportedContent, "%w: form fields require a POST with multipart/form-data, got method %s content type %q",
				ErrUnsupportedContentType, r.Method, r.effectiveContentType())
		}
	}
	if r.UploadFilePath != "" {
		if len(r.Body) > 0 {
			return errorf(CodeValidation, "body and upload file are mutually exclusive")
		}
		if r.DownloadFilePath != "" {
			return errorf(CodeValidation, "simultaneous upload and download is not supported")
		}
	}

	for i, f := range r.FormFields {
		variants := 0
		if f.FilePath != "" {
			variants++
		}
		if f.Text != "" {
			variants++
		}
		if len(f.Binary) > 0 {
			variants++
		}
		if variants != 1 {
			return errorf(CodeIncompleteForm, "%w: field %q (index %d) must carry exactly one of filePath, text, or binary",
				ErrIncompleteFormData, f.Name, i)
		}
	}

	return nil
}
