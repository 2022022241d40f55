// Package rpc is the HTTP implementation of ledger.Gateway.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/pkg/address"
	"notevault/pkg/fault"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
)

const module = "LedgerGateway"

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a ledger node over HTTP. It signs every submission with
// its signer and never retries.
type Client struct {
	endpoint      string
	program       identity.PublicKey
	signer        identity.Signer
	http          HTTPDoer
	submitTimeout time.Duration
	queryTimeout  time.Duration
	logger        logger.ILogger
	tracer        trace.Tracer
}

type Option func(*Client)

func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

// WithSubmitTimeout bounds how long a dispatched submission is awaited.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Client) { c.submitTimeout = d }
}

func WithQueryTimeout(d time.Duration) Option {
	return func(c *Client) { c.queryTimeout = d }
}

func WithLogger(log logger.ILogger) Option {
	return func(c *Client) { c.logger = log }
}

func NewClient(endpoint string, program identity.PublicKey, signer identity.Signer, opts ...Option) *Client {
	c := &Client{
		endpoint:      strings.TrimRight(endpoint, "/"),
		program:       program,
		signer:        signer,
		http:          &http.Client{},
		submitTimeout: 60 * time.Second,
		queryTimeout:  15 * time.Second,
		logger:        logger.NewNopLogger(),
		tracer:        otel.Tracer("notevault/ledger/rpc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ledger.Gateway = (*Client)(nil)

// Program is the ledger program every note address is derived under.
func (c *Client) Program() identity.PublicKey {
	return c.program
}

func (c *Client) SubmitCreate(ctx context.Context, owner identity.PublicKey, title, content string) (address.Address, error) {
	addr, err := address.Derive(c.program, owner, title)
	if err != nil {
		return address.Address{}, err
	}
	tx := ledger.NewTransaction(c.program, ledger.InstructionCreateNote, addr, owner, ledger.NoteArgs{Title: title, Content: content})
	if _, err := c.submit(ctx, tx); err != nil {
		return address.Address{}, err
	}
	return addr, nil
}

func (c *Client) SubmitUpdate(ctx context.Context, addr address.Address, acting identity.PublicKey, content string) error {
	tx := ledger.NewTransaction(c.program, ledger.InstructionUpdateNote, addr, acting, ledger.NoteArgs{Content: content})
	_, err := c.submit(ctx, tx)
	return err
}

func (c *Client) SubmitDelete(ctx context.Context, addr address.Address, acting identity.PublicKey) error {
	tx := ledger.NewTransaction(c.program, ledger.InstructionDeleteNote, addr, acting, ledger.NoteArgs{})
	_, err := c.submit(ctx, tx)
	return err
}

func (c *Client) QueryByOwner(ctx context.Context, owner identity.PublicKey) ([]*entity.Note, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.QueryByOwner", trace.WithAttributes(attribute.String("owner", owner.String())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	req := ledger.QueryRequest{Program: c.program, Filters: []ledger.MemcmpFilter{ledger.OwnerFilter(owner)}}
	var res ledger.QueryResponse
	if err := c.post(ctx, "/v1/accounts/query", req, &res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	notes := make([]*entity.Note, 0, len(res.Accounts))
	for _, acct := range res.Accounts {
		note, err := ledger.DecodeNote(acct.Address, acct.Data)
		if err != nil {
			return nil, fault.Decode("account "+acct.Address.String(), err)
		}
		if note.Owner != owner {
			return nil, fault.Decode("account "+acct.Address.String(), errors.New("owner filter not honoured"))
		}
		notes = append(notes, note)
	}
	entity.SortNotes(notes)

	span.SetAttributes(attribute.Int("notes", len(notes)))
	return notes, nil
}

// submit signs and sends tx. Cancelling ctx aborts the submission only
// until it is dispatched; after that the outcome is awaited regardless,
// since the ledger may already be committing it.
func (c *Client) submit(ctx context.Context, tx *ledger.Transaction) (*ledger.Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "ledger.Submit", trace.WithAttributes(
		attribute.String("instruction", string(tx.Instruction)),
		attribute.String("address", tx.Address.String()),
	))
	defer span.End()

	if c.signer == nil || c.signer.PublicKey() != tx.Signer {
		return nil, fmt.Errorf("%w: no signing capability for %s", fault.ErrUnauthorized, tx.Signer)
	}
	if err := tx.Sign(c.signer); err != nil {
		return nil, fault.Transport("sign", err)
	}

	if err := ctx.Err(); err != nil {
		c.logger.Info(module, "Submission aborted before dispatch", map[string]interface{}{
			"instruction": tx.Instruction,
			"address":     tx.Address.String(),
		})
		return nil, err
	}

	dispatched, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.submitTimeout)
	defer cancel()

	c.logger.Debug(module, "Submitting transaction", map[string]interface{}{
		"instruction": tx.Instruction,
		"address":     tx.Address.String(),
		"nonce":       tx.Nonce,
	})

	var receipt ledger.Receipt
	if err := c.post(dispatched, "/v1/transactions", ledger.SubmitRequest{Transaction: tx}, &receipt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn(module, "Transaction failed", map[string]interface{}{
			"instruction": tx.Instruction,
			"address":     tx.Address.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	c.logger.Info(module, "Transaction confirmed", map[string]interface{}{
		"instruction": tx.Instruction,
		"address":     tx.Address.String(),
		"signature":   receipt.Signature,
		"sequence":    receipt.Sequence,
	})
	return &receipt, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fault.Transport("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fault.Transport("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Transport("POST "+path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Transport("read response", err)
	}
	return decodeEnvelope(resp.StatusCode, raw, out)
}

// decodeEnvelope maps the loosely shaped response onto out. A structured
// failure becomes a *ledger.RemoteError; anything unparseable on a success
// status is a decode failure, on an error status a transport failure.
func decodeEnvelope(status int, raw []byte, out any) error {
	var env struct {
		Success bool                `json:"success"`
		Data    json.RawMessage     `json:"data"`
		Error   *ledger.RemoteError `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		if status >= 300 {
			return fault.Transport(fmt.Sprintf("status %d", status), err)
		}
		return fault.Decode("response", err)
	}
	if env.Error != nil {
		return env.Error
	}
	if !env.Success || status >= 300 {
		return fault.Transport(fmt.Sprintf("status %d", status), errors.New("unsuccessful response without reason"))
	}
	if len(env.Data) == 0 {
		return fault.Decode("response", errors.New("missing data"))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fault.Decode("response data", err)
	}
	return nil
}
