package method

// Method identifies the well-known request methods. Requests carrying any other valid
// token get Unknown here, while the literal token is still kept on the request.
type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	TRACE
	OPTIONS
	CONNECT
	PATCH
)

var names = [...]string{
	Unknown: "",
	GET:     "GET",
	HEAD:    "HEAD",
	POST:    "POST",
	PUT:     "PUT",
	DELETE:  "DELETE",
	TRACE:   "TRACE",
	OPTIONS: "OPTIONS",
	CONNECT: "CONNECT",
	PATCH:   "PATCH",
}

func (m Method) String() string {
	if int(m) >= len(names) {
		return ""
	}

	return names[m]
}

// Parse maps a method token onto the enum. Matching is case-sensitive, as method names are.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		switch str {
		case "GET":
			return GET
		case "PUT":
			return PUT
		}
	case 4:
		switch str {
		case "POST":
			return POST
		case "HEAD":
			return HEAD
		}
	case 5:
		switch str {
		case "TRACE":
			return TRACE
		case "PATCH":
			return PATCH
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		switch str {
		case "OPTIONS":
			return OPTIONS
		case "CONNECT":
			return CONNECT
		}
	}

	return Unknown
}
