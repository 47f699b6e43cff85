package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/schema"
	"github.com/shaiso/Conductor/internal/taskdef"
	"github.com/shaiso/Conductor/internal/worker"
)

// HTTPTaskName — тип task HTTP-воркера.
const HTTPTaskName = "http_get_generic"

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 << 20
)

// HTTPRequest — содержимое input поля http_request.
//
// Поле может прийти объектом или строкой: строка сначала разбирается
// как JSON-объект, иначе считается URI для GET.
type HTTPRequest struct {
	URI         string         `json:"uri"`
	URL         string         `json:"url"`
	Method      string         `json:"method"`
	Headers     map[string]any `json:"headers"`
	Body        any            `json:"body"`
	ContentType string         `json:"contentType"`

	// Таймауты в секундах: число или строка.
	Timeout           any `json:"timeout"`
	ReadTimeOut       any `json:"readTimeOut"`
	ConnectionTimeOut any `json:"connectionTimeOut"`
}

// Target возвращает адрес запроса (uri, затем url).
func (r *HTTPRequest) Target() string {
	if r.URI != "" {
		return r.URI
	}
	return r.URL
}

// timeout выбирает первый заданный положительный таймаут.
func (r *HTTPRequest) timeout() time.Duration {
	for _, v := range []any{r.Timeout, r.ReadTimeOut, r.ConnectionTimeOut} {
		if d, ok := seconds(v); ok && d > 0 {
			return d
		}
	}
	return defaultHTTPTimeout
}

// HTTPInput — входная схема HTTP-воркера.
func HTTPInput() *schema.Schema {
	return schema.New(schema.Field{
		Name:        "http_request",
		Kinds:       []schema.Kind{schema.KindString, schema.KindObject},
		Required:    true,
		Description: "Request: uri, method, headers, body, contentType, timeout",
	})
}

// HTTPOutput — выходная схема HTTP-воркера.
func HTTPOutput() *schema.Schema {
	return schema.New(schema.Field{
		Name:        "http_response",
		Kinds:       []schema.Kind{schema.KindObject},
		Required:    true,
		Description: "Response: status_code, headers, body",
	})
}

// NewHTTP создаёт воркер http_get_generic.
//
// Ответ с кодом >= 400 даёт FAILED, но http_response сохраняется в output.
// Сетевая ошибка возвращается как ошибка выполнения.
func NewHTTP(cfg Config) (*worker.Worker, error) {
	cfg = cfg.withDefaults()
	client := cfg.HTTPClient

	return worker.New(worker.Spec{
		Definition: taskdef.Declaration{
			Name:        HTTPTaskName,
			Description: "Generic HTTP request",
			Labels:      []string{"HTTP"},
			Overrides: taskdef.Overrides{
				TimeoutSeconds:         taskdef.Ptr(60),
				ResponseTimeoutSeconds: taskdef.Ptr(60),
			},
		},
		Input:      HTTPInput(),
		Output:     HTTPOutput(),
		Template:   cfg.templateFor(HTTPTaskName),
		OwnerEmail: cfg.OwnerEmail,
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
		Execute: func(ctx context.Context, in *worker.Input) (*domain.TaskResult, error) {
			req, err := parseHTTPRequest(in.Values["http_request"])
			if err != nil {
				return domain.Failed(err.Error()), nil
			}
			return doHTTP(ctx, client, req)
		},
	})
}

// parseHTTPRequest приводит http_request к HTTPRequest.
func parseHTTPRequest(v any) (*HTTPRequest, error) {
	var req HTTPRequest

	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if strings.HasPrefix(s, "{") {
			if err := json.Unmarshal([]byte(s), &req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
		} else {
			req.URI = s
		}
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if err := json.Unmarshal(b, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	if req.Target() == "" {
		return nil, fmt.Errorf("%w: uri is required", ErrInvalidRequest)
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	req.Method = strings.ToUpper(req.Method)

	return &req, nil
}

// doHTTP выполняет запрос и собирает результат.
func doHTTP(ctx context.Context, client *http.Client, r *HTTPRequest) (*domain.TaskResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	body, err := requestBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.Target(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	for key, val := range r.Headers {
		switch v := val.(type) {
		case string:
			req.Header.Set(key, v)
		case nil:
		default:
			req.Header.Set(key, fmt.Sprint(v))
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	} else if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
	}

	output := map[string]any{"http_response": buildResponse(resp, respBody)}

	if resp.StatusCode >= 400 {
		result := domain.Failed(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
		result.Output = output
		return result, nil
	}

	return domain.Completed(output), nil
}

// requestBody сериализует body: строка уходит как есть, остальное — JSON.
func requestBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case string:
		if b == "" {
			return nil, nil
		}
		return strings.NewReader(b), nil
	case map[string]any:
		if len(b) == 0 {
			return nil, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// buildResponse формирует http_response.
func buildResponse(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsed,
	}
}

// seconds разбирает таймаут в секундах из числа или строки.
func seconds(v any) (time.Duration, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}

// truncate обрезает s до maxLen байт по границе руны.
// Невалидные UTF-8 последовательности удаляются.
func truncate(s string, maxLen int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
