package model

// Envelope is the JSON written to stdout by the generate command.
type Envelope struct {
	Success  bool   `json:"success"`
	Data     string `json:"data,omitempty"`     // base64 document
	Filename string `json:"filename,omitempty"` // suggested download name
	Error    string `json:"error,omitempty"`
}

// ErrorBody is the JSON body of a failed HTTP request.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
