package catalog_test

import (
	"testing"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

func TestTierValid(t *testing.T) {
	tests := []struct {
		name string
		tier catalog.Tier
		want bool
	}{
		{"free", catalog.TierFree, true},
		{"plus", catalog.TierPlus, true},
		{"pro", catalog.TierPro, true},
		{"enterprise", catalog.TierEnterprise, true},
		{"reserved slot", catalog.Tier(10), true},
		{"upper bound", catalog.Tier(15), true},
		{"out of range", catalog.Tier(16), false},
		{"max uint8", catalog.Tier(255), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTierPurchasable(t *testing.T) {
	tests := []struct {
		name string
		tier catalog.Tier
		want bool
	}{
		{"free is never purchasable", catalog.TierFree, false},
		{"plus", catalog.TierPlus, true},
		{"enterprise", catalog.TierEnterprise, true},
		{"reserved slot", catalog.Tier(15), true},
		{"out of range", catalog.Tier(16), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.Purchasable(); got != tt.want {
				t.Errorf("Purchasable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTierString(t *testing.T) {
	tests := []struct {
		tier catalog.Tier
		want string
	}{
		{catalog.TierFree, "free"},
		{catalog.TierPlus, "plus"},
		{catalog.TierPro, "pro"},
		{catalog.TierEnterprise, "enterprise"},
		{catalog.Tier(7), "tier(7)"},
	}

	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", uint8(tt.tier), got, tt.want)
		}
	}
}

func TestTierOrdering(t *testing.T) {
	if !(catalog.TierFree < catalog.TierPlus &&
		catalog.TierPlus < catalog.TierPro &&
		catalog.TierPro < catalog.TierEnterprise) {
		t.Error("tiers are not strictly ascending")
	}
}

func TestTiers(t *testing.T) {
	got := catalog.Tiers()
	want := []catalog.Tier{catalog.TierPlus, catalog.TierPro, catalog.TierEnterprise}
	if len(got) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tiers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for _, tier := range got {
		if !tier.Purchasable() {
			t.Errorf("Tiers() includes non-purchasable tier %v", tier)
		}
	}
}

func TestDenominationIsNative(t *testing.T) {
	if !catalog.Native.IsNative() {
		t.Error("Native sentinel should report IsNative")
	}
	token := catalog.Denomination("0x00112233445566778899aabbccddeeff00112233")
	if token.IsNative() {
		t.Error("token denomination should not report IsNative")
	}
}

func TestPriceAccepted(t *testing.T) {
	tests := []struct {
		name  string
		price catalog.Price
		want  bool
	}{
		{
			"positive price on paid tier",
			catalog.Price{Denomination: catalog.Native, Tier: catalog.TierPlus, Amount: types.Units(types.NativeDenom, 1)},
			true,
		},
		{
			"zero price is not accepted",
			catalog.Price{Denomination: catalog.Native, Tier: catalog.TierPlus, Amount: types.ZeroAmount(types.NativeDenom)},
			false,
		},
		{
			"free tier is never accepted",
			catalog.Price{Denomination: catalog.Native, Tier: catalog.TierFree, Amount: types.Units(types.NativeDenom, 1)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.price.Accepted(); got != tt.want {
				t.Errorf("Accepted() = %v, want %v", got, tt.want)
			}
		})
	}
}
