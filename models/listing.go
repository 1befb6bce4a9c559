package models

// Listing is one directory listing, replaced wholesale on refresh.
type Listing struct {
	Path        string   `msgpack:"path"`
	Directories []string `msgpack:"directories"`
	Files       []string `msgpack:"files"`
}

type PathMessage struct {
	Path string `msgpack:"path"`
}

// ErrorResponse is the body of a non-200 backend response.
type ErrorResponse struct {
	Message string `msgpack:"message"`
}
