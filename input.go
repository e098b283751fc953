package txshield

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/txshield/model"
)

type transactionsDocument struct {
	Transactions []*model.Transaction `json:"transactions"`
}

// LoadTransactions reads a JSON array of transactions, or an object with a
// "transactions" array, from URL. Field constraints are checked later, per
// transaction, by the dispatcher.
func LoadTransactions(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) ([]*model.Transaction, error) {
	data, err := download(ctx, fs, URL, options...)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		document := &transactionsDocument{}
		if err = json.Unmarshal(data, document); err != nil {
			return nil, model.NewValidationError(err, "malformed transactions %v", URL)
		}
		return document.Transactions, nil
	}
	var ret []*model.Transaction
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, model.NewValidationError(err, "malformed transactions %v", URL)
	}
	return ret, nil
}

// LoadAccount reads and validates a JSON account from URL.
func LoadAccount(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (*model.Account, error) {
	data, err := download(ctx, fs, URL, options...)
	if err != nil {
		return nil, err
	}
	ret := &model.Account{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, model.NewValidationError(err, "malformed account %v", URL)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

func download(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) ([]byte, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download %v", URL)
	}
	return data, nil
}
