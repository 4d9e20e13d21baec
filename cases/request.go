package cases

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apiprobe/apiprobe/json"
	"github.com/apiprobe/apiprobe/openapi"
)

// BuildRequest renders the case into an HTTP request against the base URL.
// Path values substitute their template variables, query and cookie values are
// form-encoded, and the body is encoded per the selected media type.
func (c *Case) BuildRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	target := strings.TrimSuffix(baseURL, "/") + c.renderPath()

	body, contentType, err := c.renderBody()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(c.Method), target, body)
	if err != nil {
		return nil, err
	}

	if query := c.renderQuery(); query != "" {
		req.URL.RawQuery = query
	}

	if headers := c.ValuesFor(openapi.LocationHeader); headers != nil {
		for name, value := range headers.All() {
			req.Header.Set(name, FormatValue(value))
		}
	}

	if cookies := c.ValuesFor(openapi.LocationCookie); cookies != nil {
		for name, value := range cookies.All() {
			req.AddCookie(&http.Cookie{Name: name, Value: FormatValue(value)})
		}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

func (c *Case) renderPath() string {
	path := c.Path

	if values := c.ValuesFor(openapi.LocationPath); values != nil {
		for name, value := range values.All() {
			path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(FormatValue(value)))
		}
	}

	return path
}

// renderQuery form-encodes query values, exploding arrays into repeated keys
// and objects into their member pairs.
func (c *Case) renderQuery() string {
	values := c.ValuesFor(openapi.LocationQuery)
	if values == nil {
		return ""
	}

	encoded := url.Values{}
	for name, value := range values.All() {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				encoded.Add(name, FormatValue(item))
			}
		case map[string]any:
			for member, item := range v {
				encoded.Add(member, FormatValue(item))
			}
		default:
			encoded.Add(name, FormatValue(value))
		}
	}

	return encoded.Encode()
}

func (c *Case) renderBody() (io.Reader, string, error) {
	if c.Body == nil {
		return nil, "", nil
	}

	switch {
	case strings.Contains(c.MediaType, "json"):
		var buffer bytes.Buffer
		if err := json.EncodeAny(c.Body, 0, &buffer); err != nil {
			return nil, "", err
		}
		return &buffer, c.MediaType, nil

	case c.MediaType == "application/x-www-form-urlencoded":
		form := url.Values{}
		for name, value := range bodyMembers(c.Body) {
			form.Set(name, FormatValue(value))
		}
		return strings.NewReader(form.Encode()), c.MediaType, nil

	case c.MediaType == "multipart/form-data":
		var buffer bytes.Buffer
		writer := multipart.NewWriter(&buffer)
		for name, value := range bodyMembers(c.Body) {
			if err := writer.WriteField(name, FormatValue(value)); err != nil {
				return nil, "", err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", err
		}
		return &buffer, writer.FormDataContentType(), nil

	default:
		return strings.NewReader(FormatValue(c.Body)), c.MediaType, nil
	}
}

func bodyMembers(body any) map[string]any {
	if members, ok := body.(map[string]any); ok {
		return members
	}
	return map[string]any{"value": body}
}

// FormatValue renders a generated value as the string a request carries.
// Composite values render as JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		var buffer bytes.Buffer
		if err := json.EncodeAny(v, 0, &buffer); err != nil {
			return ""
		}
		return buffer.String()
	}
}
