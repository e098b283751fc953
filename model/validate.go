package model

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})
	return validate
}

// decimalValue lets numeric tags such as gt=0 apply to decimal amounts.
func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Validate checks the transaction's field constraints.
func (t *Transaction) Validate() error {
	if t == nil {
		return NewValidationError(nil, "transaction is nil")
	}
	if err := validatorInstance().Struct(t); err != nil {
		return NewValidationError(describe(err), "invalid transaction %q", t.ID)
	}
	return nil
}

// Validate checks the account's field constraints.
func (a *Account) Validate() error {
	if a == nil {
		return NewValidationError(nil, "account is nil")
	}
	if err := validatorInstance().Struct(a); err != nil {
		return NewValidationError(describe(err), "invalid account %q", a.ID)
	}
	for i, amount := range a.UsualAmounts {
		if amount.IsNegative() {
			return NewValidationError(nil, "invalid account %q: usual amount #%d is negative", a.ID, i)
		}
	}
	return nil
}

// describe flattens validator errors into a single readable error.
func describe(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	var ret error
	for _, fieldError := range fieldErrors {
		next := errors.Newf("%s failed %q", fieldError.Namespace(), fieldError.Tag())
		if ret == nil {
			ret = next
			continue
		}
		ret = errors.WithSecondaryError(ret, next)
	}
	return ret
}
