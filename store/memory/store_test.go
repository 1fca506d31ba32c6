package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/store/memory"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

var ctx = context.Background()

func addr(n byte) types.Address {
	var a types.Address
	a[19] = n
	return a
}

func nativePrice(tier catalog.Tier, units int64) *catalog.Price {
	return &catalog.Price{
		Entity:       types.NewEntity(),
		Denomination: catalog.Native,
		Tier:         tier,
		Amount:       types.Units(types.NativeDenom, units),
	}
}

func TestPriceRoundTrip(t *testing.T) {
	s := memory.New()

	if err := s.SetPrice(ctx, nativePrice(catalog.TierPlus, 100)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	got, err := s.GetPrice(ctx, catalog.Native, catalog.TierPlus)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if !got.Equal(types.Units(types.NativeDenom, 100)) {
		t.Errorf("got %s, want 100", got)
	}

	// Overwrite.
	if err := s.SetPrice(ctx, nativePrice(catalog.TierPlus, 200)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	got, err = s.GetPrice(ctx, catalog.Native, catalog.TierPlus)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if !got.Equal(types.Units(types.NativeDenom, 200)) {
		t.Errorf("got %s, want 200", got)
	}
}

func TestGetPriceAbsentIsZero(t *testing.T) {
	s := memory.New()

	got, err := s.GetPrice(ctx, catalog.Native, catalog.TierEnterprise)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("absent price should be zero, got %s", got)
	}
	if got.Denom() != types.NativeDenom {
		t.Errorf("zero price carries denom %q, want %q", got.Denom(), types.NativeDenom)
	}
}

func TestListPrices(t *testing.T) {
	s := memory.New()

	// Insert out of tier order; listing sorts ascending.
	if err := s.SetPrice(ctx, nativePrice(catalog.TierEnterprise, 300)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPrice(ctx, nativePrice(catalog.TierPlus, 100)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPrice(ctx, nativePrice(catalog.TierPro, 200)); err != nil {
		t.Fatal(err)
	}

	prices, err := s.ListPrices(ctx, catalog.Native)
	if err != nil {
		t.Fatalf("ListPrices failed: %v", err)
	}
	want := []catalog.Tier{catalog.TierPlus, catalog.TierPro, catalog.TierEnterprise}
	if len(prices) != len(want) {
		t.Fatalf("expected %d prices, got %d", len(want), len(prices))
	}
	for i, p := range prices {
		if p.Tier != want[i] {
			t.Errorf("prices[%d].Tier = %v, want %v", i, p.Tier, want[i])
		}
	}
}

func TestRemoveDenomination(t *testing.T) {
	s := memory.New()

	token := catalog.Denomination("0x3333333333333333333333333333333333333333")
	for _, tier := range []catalog.Tier{catalog.TierPro, catalog.TierPlus} {
		p := &catalog.Price{
			Entity:       types.NewEntity(),
			Denomination: token,
			Tier:         tier,
			Amount:       types.Units(string(token), 50),
		}
		if err := s.SetPrice(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	cleared, err := s.RemoveDenomination(ctx, token)
	if err != nil {
		t.Fatalf("RemoveDenomination failed: %v", err)
	}
	if len(cleared) != 2 || cleared[0] != catalog.TierPlus || cleared[1] != catalog.TierPro {
		t.Errorf("cleared = %v, want ascending [plus pro]", cleared)
	}

	got, err := s.GetPrice(ctx, token, catalog.TierPro)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() {
		t.Errorf("price survived removal: %s", got)
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	s := memory.New()

	sub := &subscription.Subscription{
		Entity:       types.NewEntity(),
		Address:      addr(1),
		ExpiresAt:    1_700_000_000,
		Denomination: catalog.Native,
		AutoRenew:    true,
		Tier:         catalog.TierPro,
	}
	if err := s.PutSubscription(ctx, sub); err != nil {
		t.Fatalf("PutSubscription failed: %v", err)
	}

	got, err := s.GetSubscription(ctx, addr(1))
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if got.Tier != catalog.TierPro || got.ExpiresAt != 1_700_000_000 || !got.AutoRenew {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// Reads hand out clones.
	got.Tier = catalog.TierFree
	again, err := s.GetSubscription(ctx, addr(1))
	if err != nil {
		t.Fatal(err)
	}
	if again.Tier != catalog.TierPro {
		t.Error("mutating a read leaked into the store")
	}

	// Writes are isolated from later caller mutation too.
	sub.Tier = catalog.TierFree
	again, err = s.GetSubscription(ctx, addr(1))
	if err != nil {
		t.Fatal(err)
	}
	if again.Tier != catalog.TierPro {
		t.Error("mutating the written record leaked into the store")
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	s := memory.New()

	_, err := s.GetSubscription(ctx, addr(9))
	if !errors.Is(err, recur.ErrNoSubscription) {
		t.Errorf("got err %v, want ErrNoSubscription", err)
	}
}

func TestSubscriberEnumeration(t *testing.T) {
	s := memory.New()

	for n := byte(1); n <= 3; n++ {
		sub := &subscription.Subscription{Entity: types.NewEntity(), Address: addr(n), Tier: catalog.TierPlus}
		if err := s.PutSubscription(ctx, sub); err != nil {
			t.Fatal(err)
		}
	}
	// Update the first record; enumeration order must not change.
	if err := s.PutSubscription(ctx, &subscription.Subscription{Entity: types.NewEntity(), Address: addr(1), Tier: catalog.TierPro}); err != nil {
		t.Fatal(err)
	}

	addrs, err := s.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	want := []types.Address{addr(1), addr(2), addr(3)}
	if len(addrs) != len(want) {
		t.Fatalf("expected %d subscribers, got %d", len(want), len(addrs))
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("addrs[%d] = %s, want %s", i, addrs[i], want[i])
		}
	}

	count, err := s.CountSubscribers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	has, err := s.HasSubscriber(ctx, addr(2))
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("HasSubscriber should report stored address")
	}

	if err := s.DeleteSubscription(ctx, addr(2)); err != nil {
		t.Fatalf("DeleteSubscription failed: %v", err)
	}
	has, err = s.HasSubscriber(ctx, addr(2))
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("deleted subscriber still enumerated")
	}
}

func TestReceipts(t *testing.T) {
	s := memory.New()

	mk := func(payer types.Address, kind payment.Kind) *payment.Receipt {
		return &payment.Receipt{
			Entity: types.NewEntity(),
			ID:     id.NewReceiptID(),
			Payer:  payer,
			Kind:   kind,
			Amount: types.Units(types.NativeDenom, 100),
		}
	}

	for _, r := range []*payment.Receipt{
		mk(addr(1), payment.KindSubscribe),
		mk(addr(1), payment.KindRenew),
		mk(addr(1), payment.KindRenew),
		mk(addr(2), payment.KindSubscribe),
	} {
		if err := s.CreateReceipt(ctx, r); err != nil {
			t.Fatalf("CreateReceipt failed: %v", err)
		}
	}

	t.Run("filter by payer", func(t *testing.T) {
		got, err := s.ListReceipts(ctx, addr(1), payment.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 receipts, got %d", len(got))
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		got, err := s.ListReceipts(ctx, addr(1), payment.ListOpts{Kind: payment.KindRenew})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 renew receipts, got %d", len(got))
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := s.ListReceipts(ctx, addr(1), payment.ListOpts{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 receipt past offset 2, got %d", len(got))
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		got, err := s.ListReceipts(ctx, addr(1), payment.ListOpts{Offset: 10})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty slice, got %d", len(got))
		}
	})
}

func TestSettings(t *testing.T) {
	s := memory.New()

	got, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != nil {
		t.Errorf("unsaved settings should load as nil, got %+v", got)
	}

	set := &store.Settings{
		Treasury:     addr(7),
		PeriodPolicy: "months",
		PeriodMonths: 1,
		RenewWindow:  int64(7 * 24 * time.Hour / time.Second),
		UpdatedAt:    time.Unix(1_700_000_000, 0).UTC(),
	}
	if err := s.SaveSettings(ctx, set); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, err = s.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Treasury != addr(7) || got.PeriodPolicy != "months" || got.PeriodMonths != 1 {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// Loads hand out copies.
	got.PeriodMonths = 12
	again, err := s.LoadSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.PeriodMonths != 1 {
		t.Error("mutating a loaded settings leaked into the store")
	}
}

func TestClosedStore(t *testing.T) {
	s := memory.New()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping on open store failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, recur.ErrStoreClosed) {
		t.Errorf("Ping after close: got %v, want ErrStoreClosed", err)
	}
	if err := s.SetPrice(ctx, nativePrice(catalog.TierPlus, 1)); !errors.Is(err, recur.ErrStoreClosed) {
		t.Errorf("SetPrice after close: got %v, want ErrStoreClosed", err)
	}
	if _, err := s.GetSubscription(ctx, addr(1)); !errors.Is(err, recur.ErrStoreClosed) {
		t.Errorf("GetSubscription after close: got %v, want ErrStoreClosed", err)
	}
	if _, err := s.ListSubscribers(ctx); !errors.Is(err, recur.ErrStoreClosed) {
		t.Errorf("ListSubscribers after close: got %v, want ErrStoreClosed", err)
	}
	if err := s.SaveSettings(ctx, &store.Settings{}); !errors.Is(err, recur.ErrStoreClosed) {
		t.Errorf("SaveSettings after close: got %v, want ErrStoreClosed", err)
	}
}

func TestStoreInterfaceCompliance(t *testing.T) {
	var _ store.Store = memory.New()
}
