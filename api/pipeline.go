package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// DefaultTimeout applies to requests whose context carries no deadline.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 64 << 10
)

// Session is the slice of the session store the pipeline depends on: it
// reads the token on every request and clears the session on a 401.
type Session interface {
	TokenSource
	Logout() error
}

// Options configures a Pipeline. Zero values get sensible defaults.
type Options struct {
	Transport http.RoundTripper
	Timeout   time.Duration
	Notifier  Notifier
	Navigator Navigator
	Throttle  *Throttle
}

// Pipeline sends requests with the current credential and reacts to
// failures uniformly: a 401 clears the session and navigates to login,
// other failures surface a notice. Every failure is still returned to the
// caller. Nothing is retried.
type Pipeline struct {
	client    *http.Client
	session   Session
	notifier  Notifier
	navigator Navigator
	throttle  *Throttle
	timeout   time.Duration
}

// New creates a pipeline over session.
func New(session Session, opts Options) *Pipeline {
	p := &Pipeline{
		session:   session,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		throttle:  opts.Throttle,
		timeout:   opts.Timeout,
	}
	if p.notifier == nil {
		p.notifier = discardNotifier{}
	}
	if p.navigator == nil {
		p.navigator = discardNavigator{}
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	p.client = &http.Client{
		Transport: &BearerTransport{Base: opts.Transport, Tokens: session},
	}
	return p
}

// Do sends req and classifies the outcome. On success the response is
// returned untouched and the caller must close its body. On failure the
// side effects for the failure's class are applied and an *Error is
// returned. If req's context is done by the time the outcome arrives, no
// side effects are applied and the context error is returned.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := p.throttle.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctx.Err())
		}
		apiErr := &Error{
			Method: req.Method,
			URL:    req.URL.Path,
			Class:  ClassTransport,
			Err:    err,
		}
		log.Printf("[api] %s %s not sent: %v", req.Method, req.URL.Path, err)
		p.react(ctx, apiErr)
		return nil, apiErr
	}

	// The default timeout only bounds the wait for response headers. A
	// successful body streams for as long as the caller's context allows.
	reqCtx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if _, ok := ctx.Deadline(); !ok {
		timer = time.AfterFunc(p.timeout, cancel)
	}
	req = req.WithContext(reqCtx)

	start := time.Now()
	resp, err := p.client.Do(req)
	timedOut := timer != nil && !timer.Stop()
	if err == nil && timedOut {
		// Headers raced the timer; the body is already cancelled.
		resp.Body.Close()
		err = context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			log.Printf("[api] %s %s abandoned: %v", req.Method, req.URL.Path, ctx.Err())
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctx.Err())
		}
		if timedOut {
			err = fmt.Errorf("no response within %s: %w", p.timeout, err)
		}
		apiErr := &Error{
			Method: req.Method,
			URL:    req.URL.Path,
			Class:  ClassTransport,
			Err:    err,
		}
		log.Printf("[api] %s %s failed after %s: %v", req.Method, req.URL.Path, time.Since(start).Round(time.Millisecond), err)
		p.react(ctx, apiErr)
		return nil, apiErr
	}

	class := Classify(resp.StatusCode)
	log.Printf("[api] %s %s -> %d (%s) in %s", req.Method, req.URL.Path, resp.StatusCode, class, time.Since(start).Round(time.Millisecond))

	if class == ClassNone {
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	cancel()

	if ctx.Err() != nil {
		log.Printf("[api] %s %s response ignored: %v", req.Method, req.URL.Path, ctx.Err())
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctx.Err())
	}

	apiErr := &Error{
		Method:     req.Method,
		URL:        req.URL.Path,
		StatusCode: resp.StatusCode,
		Class:      class,
		Message:    ErrorMessage(body),
		Body:       body,
		Err:        classError(class),
	}
	p.react(ctx, apiErr)
	return nil, apiErr
}

// DoJSON sends req and decodes a successful body into out. A nil out
// discards the body.
func (p *Pipeline) DoJSON(req *http.Request, out any) error {
	resp, err := p.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NewJSONRequest builds a request with body encoded as JSON. A nil body
// sends no payload.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// react applies the side effects for a failure, in precedence order.
func (p *Pipeline) react(ctx context.Context, e *Error) {
	claimed := e.StatusCode != 0 && Claimed(ctx, e.StatusCode)

	switch e.Class {
	case ClassUnauthorized:
		if err := p.session.Logout(); err != nil {
			log.Printf("[api] clearing session after 401 failed: %v", err)
		}
		p.navigator.ToLogin()
		if !claimed {
			p.notify(MessageSessionExpired)
		}
	case ClassForbidden:
		if !claimed {
			p.notify(MessageAccessDenied)
		}
	case ClassServer:
		if !claimed {
			p.notify(MessageServerError)
		}
	default:
		if claimed {
			return
		}
		message := e.Message
		if message == "" && e.Class == ClassTransport && e.Err != nil {
			message = e.Err.Error()
		}
		if message == "" {
			message = MessageGenericFailure
		}
		p.notify(message)
	}
}

func (p *Pipeline) notify(message string) {
	p.notifier.Notify(Notice{Level: LevelError, Message: message})
}

func classError(c Class) error {
	switch c {
	case ClassUnauthorized:
		return ErrUnauthorized
	case ClassForbidden:
		return ErrForbidden
	case ClassServer:
		return ErrServer
	default:
		return ErrFailure
	}
}

// cancelOnClose releases the request context once the caller is done with
// a successful body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
