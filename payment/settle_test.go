package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/types"
)

var (
	payer    = types.MustParseAddress("0x1111111111111111111111111111111111111111")
	treasury = types.MustParseAddress("0x2222222222222222222222222222222222222222")
	token    = catalog.Denomination("0x3333333333333333333333333333333333333333")
)

func native(units int64) types.Amount { return types.Units(types.NativeDenom, units) }
func tokens(units int64) types.Amount { return types.Units(string(token), units) }

// fakeNative records native transfers and can be told to fail the Nth call.
type fakeNative struct {
	calls  []nativeCall
	failAt int // 1-based call index to fail at, 0 = never
	err    error
}

type nativeCall struct {
	to     types.Address
	amount types.Amount
}

func (f *fakeNative) Transfer(_ context.Context, to types.Address, amount types.Amount) error {
	f.calls = append(f.calls, nativeCall{to: to, amount: amount})
	if f.failAt != 0 && len(f.calls) == f.failAt {
		if f.err != nil {
			return f.err
		}
		return errors.New("transfer rejected")
	}
	return nil
}

// fakeToken is a TokenTransfer with a fixed allowance and balance.
type fakeToken struct {
	allowance types.Amount
	balance   types.Amount

	pulls     []nativeCall
	permits   []payment.Permit
	pullErr   error
	permitErr error
	queryErr  error
}

func (f *fakeToken) TransferFrom(_ context.Context, _ catalog.Denomination, _, to types.Address, amount types.Amount) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulls = append(f.pulls, nativeCall{to: to, amount: amount})
	return nil
}

func (f *fakeToken) Allowance(_ context.Context, _ catalog.Denomination, _ types.Address) (types.Amount, error) {
	if f.queryErr != nil {
		return types.Amount{}, f.queryErr
	}
	return f.allowance, nil
}

func (f *fakeToken) BalanceOf(_ context.Context, _ catalog.Denomination, _ types.Address) (types.Amount, error) {
	if f.queryErr != nil {
		return types.Amount{}, f.queryErr
	}
	return f.balance, nil
}

func (f *fakeToken) Permit(_ context.Context, _ catalog.Denomination, auth payment.Permit) error {
	if f.permitErr != nil {
		return f.permitErr
	}
	f.permits = append(f.permits, auth)
	return nil
}

func TestSettleNative(t *testing.T) {
	tests := []struct {
		name    string
		value   types.Amount
		price   types.Amount
		wantErr error
	}{
		{"exact value", native(100), native(100), nil},
		{"overpay rejected", native(101), native(100), payment.ErrWrongValueSent},
		{"underpay rejected", native(99), native(100), payment.ErrWrongValueSent},
		{"zero for zero", native(0), native(0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nat := &fakeNative{}
			s := payment.NewSettler(nat, nil)

			err := s.SettleNative(context.Background(), treasury, tt.value, tt.price)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(nat.calls) != 0 {
					t.Errorf("rejected settlement still moved value: %v", nat.calls)
				}
				return
			}
			if len(nat.calls) != 1 {
				t.Fatalf("expected 1 forward, got %d", len(nat.calls))
			}
			if nat.calls[0].to != treasury || !nat.calls[0].amount.Equal(tt.price) {
				t.Errorf("forwarded %s to %s, want %s to %s",
					nat.calls[0].amount, nat.calls[0].to, tt.price, treasury)
			}
		})
	}
}

func TestSettleNativeForwardFails(t *testing.T) {
	nat := &fakeNative{failAt: 1}
	s := payment.NewSettler(nat, nil)

	err := s.SettleNative(context.Background(), treasury, native(100), native(100))
	if !errors.Is(err, payment.ErrTransferFailed) {
		t.Fatalf("got err %v, want ErrTransferFailed", err)
	}
}

func TestSettleNativeWithRefund(t *testing.T) {
	t.Run("exact cost refunds nothing", func(t *testing.T) {
		nat := &fakeNative{}
		s := payment.NewSettler(nat, nil)

		refunded, err := s.SettleNativeWithRefund(context.Background(), payer, treasury, native(100), native(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !refunded.IsZero() {
			t.Errorf("refunded %s, want zero", refunded)
		}
		if len(nat.calls) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(nat.calls))
		}
	})

	t.Run("excess goes back to payer", func(t *testing.T) {
		nat := &fakeNative{}
		s := payment.NewSettler(nat, nil)

		refunded, err := s.SettleNativeWithRefund(context.Background(), payer, treasury, native(150), native(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !refunded.Equal(native(50)) {
			t.Errorf("refunded %s, want %s", refunded, native(50))
		}
		if len(nat.calls) != 2 {
			t.Fatalf("expected forward + refund, got %d calls", len(nat.calls))
		}
		if nat.calls[0].to != treasury || !nat.calls[0].amount.Equal(native(100)) {
			t.Errorf("forward was %s to %s", nat.calls[0].amount, nat.calls[0].to)
		}
		if nat.calls[1].to != payer || !nat.calls[1].amount.Equal(native(50)) {
			t.Errorf("refund was %s to %s", nat.calls[1].amount, nat.calls[1].to)
		}
	})

	t.Run("underpayment rejected", func(t *testing.T) {
		nat := &fakeNative{}
		s := payment.NewSettler(nat, nil)

		_, err := s.SettleNativeWithRefund(context.Background(), payer, treasury, native(99), native(100))
		if !errors.Is(err, payment.ErrWrongValueSent) {
			t.Fatalf("got err %v, want ErrWrongValueSent", err)
		}
		if len(nat.calls) != 0 {
			t.Error("underpayment still moved value")
		}
	})

	t.Run("failed refund is fatal", func(t *testing.T) {
		nat := &fakeNative{failAt: 2}
		s := payment.NewSettler(nat, nil)

		_, err := s.SettleNativeWithRefund(context.Background(), payer, treasury, native(150), native(100))
		if !errors.Is(err, payment.ErrRefundFailed) {
			t.Fatalf("got err %v, want ErrRefundFailed", err)
		}
	})
}

func TestSettleToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("plain allowance pull", func(t *testing.T) {
		tok := &fakeToken{}
		s := payment.NewSettler(nil, tok)

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), nil, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tok.pulls) != 1 {
			t.Fatalf("expected 1 pull, got %d", len(tok.pulls))
		}
		if tok.pulls[0].to != treasury || !tok.pulls[0].amount.Equal(tokens(100)) {
			t.Errorf("pulled %s to %s", tok.pulls[0].amount, tok.pulls[0].to)
		}
		if len(tok.permits) != 0 {
			t.Error("nil auth should not apply a permit")
		}
	})

	t.Run("permit applied before pull", func(t *testing.T) {
		tok := &fakeToken{}
		s := payment.NewSettler(nil, tok)
		auth := &payment.Permit{Owner: payer, Value: tokens(100), Deadline: now.Unix() + 60}

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), auth, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tok.permits) != 1 {
			t.Fatalf("expected 1 permit, got %d", len(tok.permits))
		}
		if len(tok.pulls) != 1 {
			t.Fatalf("expected 1 pull, got %d", len(tok.pulls))
		}
	})

	t.Run("expired permit aborts before any movement", func(t *testing.T) {
		tok := &fakeToken{}
		s := payment.NewSettler(nil, tok)
		auth := &payment.Permit{Deadline: now.Unix() - 1}

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), auth, now)
		if !errors.Is(err, payment.ErrPermitExpired) {
			t.Fatalf("got err %v, want ErrPermitExpired", err)
		}
		if len(tok.permits) != 0 || len(tok.pulls) != 0 {
			t.Error("expired permit still touched the token")
		}
	})

	t.Run("deadline exactly now is accepted", func(t *testing.T) {
		tok := &fakeToken{}
		s := payment.NewSettler(nil, tok)
		auth := &payment.Permit{Deadline: now.Unix()}

		if err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), auth, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejected permit", func(t *testing.T) {
		tok := &fakeToken{permitErr: errors.New("bad signature")}
		s := payment.NewSettler(nil, tok)
		auth := &payment.Permit{Deadline: now.Unix() + 60}

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), auth, now)
		if !errors.Is(err, payment.ErrPermitInvalid) {
			t.Fatalf("got err %v, want ErrPermitInvalid", err)
		}
		if len(tok.pulls) != 0 {
			t.Error("rejected permit still pulled")
		}
	})

	t.Run("failed pull", func(t *testing.T) {
		tok := &fakeToken{pullErr: errors.New("allowance exceeded")}
		s := payment.NewSettler(nil, tok)

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), nil, now)
		if !errors.Is(err, payment.ErrTransferFailed) {
			t.Fatalf("got err %v, want ErrTransferFailed", err)
		}
	})

	t.Run("no token collaborator", func(t *testing.T) {
		s := payment.NewSettler(&fakeNative{}, nil)

		err := s.SettleToken(context.Background(), token, payer, treasury, tokens(100), nil, now)
		if !errors.Is(err, payment.ErrTransferFailed) {
			t.Fatalf("got err %v, want ErrTransferFailed", err)
		}
	})
}

func TestPrecheck(t *testing.T) {
	tests := []struct {
		name      string
		allowance types.Amount
		balance   types.Amount
		price     types.Amount
		wantErr   error
	}{
		{"both cover", tokens(200), tokens(200), tokens(100), nil},
		{"exact cover", tokens(100), tokens(100), tokens(100), nil},
		{"allowance short", tokens(99), tokens(200), tokens(100), payment.ErrInsufficientAllowance},
		{"balance short", tokens(200), tokens(99), tokens(100), payment.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &fakeToken{allowance: tt.allowance, balance: tt.balance}
			s := payment.NewSettler(nil, tok)

			err := s.Precheck(context.Background(), token, payer, tt.price)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("query failure propagates", func(t *testing.T) {
		tok := &fakeToken{queryErr: errors.New("rpc down")}
		s := payment.NewSettler(nil, tok)

		if err := s.Precheck(context.Background(), token, payer, tokens(100)); err == nil {
			t.Fatal("expected error from failed allowance query")
		}
	})
}
