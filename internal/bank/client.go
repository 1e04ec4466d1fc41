// Package bank implements a narrow client for the bank's statement API.
// The core consumes it through a one-method interface so tests can swap
// in a canned feed; there is deliberately no retry or caching here, a
// failed call surfaces immediately as ErrPaymentFeedUnavailable.
package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// Transaction is one statement line for the settlement account. Amounts
// are signed whole crowns; incoming payments are positive.
type Transaction struct {
	Date                time.Time
	Amount              int64
	Currency            string
	VariableSymbol      string // attendee-correlation symbol, empty when absent
	CounterpartyName    string
	CounterpartyAccount string // "number/bankCode"
	Message             string // message for the recipient, empty when absent
}

const defaultBaseURL = "https://fioapi.fio.cz/v1/rest"
const requestTimeout = 15 * time.Second

// Client queries the period-statement endpoint of the bank API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option adjusts a Client; used by tests to point at a local server.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient builds a statement client for the given API token. The token
// identifies the settlement account; an empty token makes every Period
// call fail with ErrPaymentFeedUnavailable, mirroring an unconfigured
// deployment.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Period fetches all transactions between start and end (inclusive). The
// result is consumed once per reconciliation run; any transport, auth or
// decoding failure maps to model.ErrPaymentFeedUnavailable.
func (c *Client) Period(ctx context.Context, start, end time.Time) ([]Transaction, error) {
	if c.token == "" {
		return nil, fmt.Errorf("%w: no API token configured", model.ErrPaymentFeedUnavailable)
	}

	url := fmt.Sprintf("%s/periods/%s/%s/%s/transactions.json",
		c.baseURL, c.token, start.Format("2006-01-02"), end.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentFeedUnavailable, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: statement endpoint returned %s", model.ErrPaymentFeedUnavailable, resp.Status)
	}

	var payload statementPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding statement: %v", model.ErrPaymentFeedUnavailable, err)
	}

	raw := payload.AccountStatement.TransactionList.Transaction
	out := make([]Transaction, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toTransaction())
	}
	return out, nil
}

// The statement JSON wraps every field in a column object; nullable
// columns are null. Column numbering follows the bank's export format.
type statementPayload struct {
	AccountStatement struct {
		TransactionList struct {
			Transaction []rawTransaction `json:"transaction"`
		} `json:"transactionList"`
	} `json:"accountStatement"`
}

type column[T any] struct {
	Value T `json:"value"`
}

type rawTransaction struct {
	Date           *column[string]  `json:"column0"`
	Amount         *column[float64] `json:"column1"`
	Account        *column[string]  `json:"column2"`
	BankCode       *column[string]  `json:"column3"`
	VariableSymbol *column[string]  `json:"column5"`
	Name           *column[string]  `json:"column7"`
	Currency       *column[string]  `json:"column14"`
	Message        *column[string]  `json:"column16"`
}

// Dates arrive as "2021-07-01+0200".
const dateLayout = "2006-01-02-0700"

func (r rawTransaction) toTransaction() Transaction {
	var t Transaction
	if r.Date != nil {
		if parsed, err := time.Parse(dateLayout, r.Date.Value); err == nil {
			t.Date = parsed
		}
	}
	if r.Amount != nil {
		t.Amount = int64(r.Amount.Value)
	}
	if r.Currency != nil {
		t.Currency = r.Currency.Value
	}
	if r.VariableSymbol != nil {
		t.VariableSymbol = r.VariableSymbol.Value
	}
	if r.Name != nil {
		t.CounterpartyName = r.Name.Value
	}
	if r.Account != nil {
		t.CounterpartyAccount = r.Account.Value
		if r.BankCode != nil && r.BankCode.Value != "" {
			t.CounterpartyAccount += "/" + r.BankCode.Value
		}
	}
	if r.Message != nil {
		t.Message = r.Message.Value
	}
	return t
}
