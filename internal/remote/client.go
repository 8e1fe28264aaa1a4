package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Domenick1991/skyclient/internal/remote"

const maxErrorBody = 64 << 10

// HTTPClient talks JSON to the booking API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
	tracer  trace.Tracer
}

type ClientOption func(*HTTPClient)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithTimeout bounds every request; zero keeps the default of no timeout.
// A client passed with WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

func WithLogger(l logger.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger.NewNoOpLogger(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

var _ API = (*HTTPClient)(nil)

func (c *HTTPClient) SearchFlights(ctx context.Context, query domain.FlightQuery) ([]domain.Flight, error) {
	params := url.Values{}
	params.Set(ParamDepartureCity, query.DepartureCity)
	params.Set(ParamArrivalCity, query.DestinationCity)
	params.Set(ParamDepartureDate, query.DepartureDate.Format(DateLayout))
	if query.ReturnDate != nil {
		params.Set(ParamReturnDate, query.ReturnDate.Format(DateLayout))
	}
	if query.SeatClass != "" {
		params.Set(ParamSeatClass, string(query.SeatClass))
	}

	const op = "search_flights"
	var raw []domain.RawFlight
	if err := c.do(ctx, op, http.MethodGet, PathSearchFlights, params, "", nil, &raw); err != nil {
		return nil, err
	}

	flights := make([]domain.Flight, 0, len(raw))
	for i, rf := range raw {
		f, err := domain.ParseFlight(rf)
		if err != nil {
			return nil, &Error{Op: op, Status: http.StatusOK, Kind: KindDecode, Err: fmt.Errorf("flight %d: %w", i, err)}
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "sign_in", http.MethodPost, PathSignIn, nil, "", SignInRequest{Email: email, Password: password}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, checkAuth("sign_in", out)
}

func (c *HTTPClient) Register(ctx context.Context, fullName, email, password string) (AuthResponse, error) {
	var out AuthResponse
	req := RegisterRequest{FullName: fullName, Email: email, Password: password}
	if err := c.do(ctx, "register", http.MethodPost, PathRegister, nil, "", req, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, checkAuth("register", out)
}

func checkAuth(op string, out AuthResponse) error {
	if out.Token == "" || out.Email == "" {
		return &Error{Op: op, Status: http.StatusOK, Kind: KindDecode, Err: errors.New("response is missing token or email")}
	}
	return nil
}

// ValidateToken reports whether token is still accepted by the server. A
// 401 answer is treated as an invalid token rather than a failure.
func (c *HTTPClient) ValidateToken(ctx context.Context, token string) (bool, error) {
	var out ValidateResponse
	err := c.do(ctx, "validate_token", http.MethodPost, PathValidateToken, nil, token, nil, &out)
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) && rerr.Status == http.StatusUnauthorized {
			return false, nil
		}
		return false, err
	}
	return out.Valid, nil
}

func (c *HTTPClient) ListBookings(ctx context.Context, token string) ([]domain.Booking, error) {
	const op = "list_bookings"
	var out []domain.Booking
	if err := c.do(ctx, op, http.MethodGet, PathBookings, nil, token, nil, &out); err != nil {
		return nil, err
	}
	for _, b := range out {
		if err := b.Validate(); err != nil {
			return nil, &Error{Op: op, Status: http.StatusOK, Kind: KindDecode, Err: fmt.Errorf("booking %d: %w", b.ID, err)}
		}
	}
	return out, nil
}

func (c *HTTPClient) CreateBooking(ctx context.Context, token string, req CreateBookingRequest) (domain.Booking, error) {
	return c.bookingCall(ctx, "create_booking", http.MethodPost, PathBookings, token, req)
}

func (c *HTTPClient) CancelBooking(ctx context.Context, token string, bookingID int64) (domain.Booking, error) {
	return c.bookingCall(ctx, "cancel_booking", http.MethodPost, bookingPath(bookingID)+"/cancel", token, nil)
}

func (c *HTTPClient) DeleteBooking(ctx context.Context, token string, bookingID int64) error {
	return c.do(ctx, "delete_booking", http.MethodDelete, bookingPath(bookingID), nil, token, nil, nil)
}

func bookingPath(id int64) string {
	return PathBookings + "/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) bookingCall(ctx context.Context, op, method, path, token string, body interface{}) (domain.Booking, error) {
	var out domain.Booking
	if err := c.do(ctx, op, method, path, nil, token, body, &out); err != nil {
		return domain.Booking{}, err
	}
	if err := out.Validate(); err != nil {
		return domain.Booking{}, &Error{Op: op, Status: http.StatusOK, Kind: KindDecode, Err: err}
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, token string, body, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "remote."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		kind := KindUnknown
		var rerr *Error
		if errors.As(err, &rerr) {
			kind = rerr.Kind
		}
		metrics.RemoteRequestErrors.WithLabelValues(op, kind.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		c.logger.Warn("remote call failed", map[string]interface{}{"op": op, "path": path, "error": err})
	}()

	var reader io.Reader
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return &Error{Op: op, Kind: KindValidation, Err: merr}
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindUnknown, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Op: op, Kind: KindUnknown, Err: ctxErr}
		}
		return &Error{Op: op, Kind: KindUnreachable, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&e)
		return &Error{Op: op, Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode), Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Kind: KindDecode, Err: err}
	}
	return nil
}
