// Package static is a browser driver for plain HTML forms. It fetches pages
// over HTTP, keeps field state in the parsed document and submits forms the
// way a browser would without running any script.
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/browser/domscript"
)

var (
	_ output.BrowserLauncher = (*Launcher)(nil)
	_ output.BrowserPort     = (*Session)(nil)
)

var (
	ErrNoPage                = errors.New("no page loaded")
	ErrScreenshotUnsupported = errors.New("screenshots are not supported by the static driver")
)

const maxBody = 5 << 20

type Launcher struct {
	client *http.Client
}

// NewLauncher uses client for every request; nil selects a default client.
// Each session gets its own cookie jar.
func NewLauncher(client *http.Client) *Launcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Launcher{client: client}
}

func (l *Launcher) Open(context.Context) (output.BrowserPort, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	client := *l.client
	client.Jar = jar
	return &Session{client: &client}, nil
}

type Session struct {
	client *http.Client
	doc    *goquery.Document
	url    *url.URL
	closed bool
}

func (s *Session) ready() error {
	if s.closed {
		return entity.ErrSessionClosed
	}
	if s.doc == nil {
		return ErrNoPage
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if s.closed {
		return entity.ErrSessionClosed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return s.load(req)
}

func (s *Session) load(req *http.Request) error {
	req.Header.Set("User-Agent", "form-agent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("received status code %d from %s", resp.StatusCode, req.URL)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	s.doc = goquery.NewDocumentFromNode(root)
	s.url = resp.Request.URL
	s.doc.Url = s.url
	return nil
}

func (s *Session) Elements(context.Context) ([]entity.ElementDescriptor, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var out []entity.ElementDescriptor
	s.doc.Find(entity.ElementSelector).Each(func(_ int, sel *goquery.Selection) {
		tag := entity.TagKind(goquery.NodeName(sel))
		out = append(out, entity.ElementDescriptor{
			Tag:   tag,
			Type:  sel.AttrOr("type", ""),
			Name:  sel.AttrOr("name", ""),
			Value: currentValue(sel, tag),
			Label: s.label(sel),
		})
	})
	return out, nil
}

func currentValue(sel *goquery.Selection, tag entity.TagKind) string {
	switch tag {
	case entity.TagInput:
		return sel.AttrOr("value", "")
	case entity.TagTextArea:
		return sel.Text()
	case entity.TagSelect:
		return domscript.Collapse(selectedOption(sel).Text())
	default:
		return ""
	}
}

func selectedOption(sel *goquery.Selection) *goquery.Selection {
	opt := sel.Find("option[selected]").Last()
	if opt.Length() == 0 {
		opt = sel.Find("option").First()
	}
	return opt
}

func (s *Session) label(sel *goquery.Selection) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		var text string
		found := false
		s.doc.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if l.AttrOr("for", "") == id {
				text, found = domscript.Collapse(l.Text()), true
				return false
			}
			return true
		})
		if found && text != "" {
			return text
		}
	}
	return domscript.Collapse(sel.Text())
}

func accessibleName(sel *goquery.Selection) string {
	if aria := strings.TrimSpace(sel.AttrOr("aria-label", "")); aria != "" {
		return aria
	}
	if own := domscript.Collapse(sel.Text()); own != "" {
		return own
	}
	return strings.TrimSpace(sel.AttrOr("value", ""))
}

func (s *Session) locate(kind entity.ActionKind, key, role string) (*goquery.Selection, error) {
	var candidates *goquery.Selection
	nameOf := s.label

	switch kind {
	case entity.ActionClick:
		if role == "button" {
			candidates = s.doc.Find(domscript.ButtonSelector)
		} else {
			candidates = s.doc.Find(fmt.Sprintf(`[role=%q]`, role))
		}
		nameOf = accessibleName
	case entity.ActionSelect:
		candidates = s.doc.Find(domscript.SelectSelector)
	default:
		candidates = s.doc.Find(domscript.FillSelector)
	}

	matches := candidates.FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return nameOf(sel) == key
	})
	if matches.Length() != 1 {
		return nil, &entity.ElementNotFoundError{Kind: kind, Target: key, Matches: matches.Length()}
	}
	return matches, nil
}

func (s *Session) Fill(_ context.Context, label, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	sel, err := s.locate(entity.ActionFill, label, "")
	if err != nil {
		return err
	}

	if goquery.NodeName(sel) == "textarea" {
		sel.SetText(value)
	} else {
		sel.SetAttr("value", value)
	}
	return nil
}

func (s *Session) Select(_ context.Context, label, option string) error {
	if err := s.ready(); err != nil {
		return err
	}
	sel, err := s.locate(entity.ActionSelect, label, "")
	if err != nil {
		return err
	}

	options := sel.Find("option")
	target := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
		return domscript.Collapse(o.Text()) == option
	}).First()
	if target.Length() == 0 {
		return &entity.ElementNotFoundError{Kind: entity.ActionSelect, Target: label + " / " + option}
	}

	options.RemoveAttr("selected")
	target.SetAttr("selected", "selected")
	return nil
}

// Click submits the enclosing form for submit controls and follows the
// href of link buttons. Other buttons have no effect without scripts.
func (s *Session) Click(ctx context.Context, role, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	sel, err := s.locate(entity.ActionClick, name, role)
	if err != nil {
		return err
	}

	if href, ok := sel.Attr("href"); ok && goquery.NodeName(sel) == "a" {
		target, err := s.url.Parse(strings.TrimSpace(href))
		if err != nil {
			return fmt.Errorf("resolve href: %w", err)
		}
		return s.Navigate(ctx, target.String())
	}

	if !isSubmitter(sel) {
		return nil
	}
	form := sel.Closest("form")
	if form.Length() == 0 {
		return nil
	}
	return s.submit(ctx, form, sel)
}

func isSubmitter(sel *goquery.Selection) bool {
	typ := strings.ToLower(sel.AttrOr("type", ""))
	switch goquery.NodeName(sel) {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit"
	default:
		return false
	}
}

func (s *Session) submit(ctx context.Context, form, submitter *goquery.Selection) error {
	values := formValues(form, submitter)

	action, err := s.url.Parse(form.AttrOr("action", ""))
	if err != nil {
		return fmt.Errorf("resolve form action: %w", err)
	}

	var req *http.Request
	if strings.EqualFold(form.AttrOr("method", "get"), http.MethodPost) {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		action.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, action.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return s.load(req)
}

// formValues collects the successful controls of form in document order.
func formValues(form, submitter *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, textarea, select, button").Each(func(_ int, c *goquery.Selection) {
		name, ok := c.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := c.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(c) {
		case "textarea":
			values.Add(name, c.Text())
		case "select":
			opt := selectedOption(c)
			if opt.Length() == 0 {
				return
			}
			values.Add(name, opt.AttrOr("value", domscript.Collapse(opt.Text())))
		case "button":
			if c.IsSelection(submitter) {
				values.Add(name, c.AttrOr("value", ""))
			}
		default:
			switch strings.ToLower(c.AttrOr("type", "text")) {
			case "submit":
				if c.IsSelection(submitter) {
					values.Add(name, c.AttrOr("value", ""))
				}
			case "button", "reset", "file", "image":
			case "checkbox", "radio":
				if _, checked := c.Attr("checked"); checked {
					values.Add(name, c.AttrOr("value", "on"))
				}
			default:
				values.Add(name, c.AttrOr("value", ""))
			}
		}
	})
	return values
}

func (s *Session) Screenshot(context.Context) (*entity.Screenshot, error) {
	return nil, ErrScreenshotUnsupported
}

func (s *Session) CurrentURL() string {
	if s.url == nil {
		return ""
	}
	return s.url.String()
}

func (s *Session) Close() error {
	s.closed = true
	s.doc = nil
	return nil
}
