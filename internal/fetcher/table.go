package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"goldwatch/internal/record"
)

// ErrTableNotFound marks a page that loaded but no longer carries the
// expected price table. Treated as a structural break, not a transient fault.
var ErrTableNotFound = errors.New("fetcher: price table not found")

// TableOptions parameterise the HTML table reader.
type TableOptions struct {
	URL        string
	TableClass string
	UserAgent  string
	Timeout    time.Duration
}

// Table reads the price table straight out of the page HTML.
type Table struct {
	opts   TableOptions
	client *http.Client
	logger zerolog.Logger
}

// NewTable constructs an HTML table reader.
func NewTable(opts TableOptions, logger zerolog.Logger) *Table {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if opts.TableClass == "" {
		opts.TableClass = "gold-table-content"
	}

	return &Table{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "table_fetcher").Logger(),
	}
}

// FetchRows downloads the page and extracts (name, buy, sell) cells from the
// first matching table's body rows.
func (t *Table) FetchRows(ctx context.Context) ([]record.Row, error) {
	if t.opts.URL == "" {
		return nil, errors.New("source url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create source request: %w", err)
	}
	if ua := strings.TrimSpace(t.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse source page: %w", err)
	}

	table := findTable(doc, t.opts.TableClass)
	if table == nil {
		return nil, ErrTableNotFound
	}

	rows := extractRows(table)
	t.logger.Debug().Int("rows", len(rows)).Msg("price table extracted")
	return rows, nil
}

func findTable(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTable(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func extractRows(table *html.Node) []record.Row {
	var rows []record.Row
	tbody := findElement(table, "tbody")
	if tbody == nil {
		return rows
	}

	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.Data != "tr" {
			continue
		}
		cells := childElements(tr, "td")
		if len(cells) < 3 {
			continue
		}
		rows = append(rows, record.Row{
			Name:     nodeText(cells[0]),
			BuyText:  nodeText(cells[1]),
			SellText: nodeText(cells[2]),
		})
	}
	return rows
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func childElements(n *html.Node, name string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == name {
			out = append(out, c)
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

var _ SourceReader = (*Table)(nil)
