package domain

import (
	"reflect"
	"testing"
)

func TestNormalizeAttributes_FieldVariants(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want AttributeRecord
	}{
		{
			name: "canonical keys",
			in: map[string]any{
				"itemType": "phone", "color": "blue", "brandModel": "Apple iPhone 13",
				"uniqueIdentifiers": []any{"cracked corner", "sticker"},
			},
			want: AttributeRecord{ItemType: "phone", Color: "blue", BrandModel: "Apple iPhone 13", UniqueIdentifiers: []string{"cracked corner", "sticker"}},
		},
		{
			name: "type alias and slash key",
			in:   map[string]any{"type": "wallet", "brand/model": "Fossil", "Size/Dimensions": "small"},
			want: AttributeRecord{ItemType: "wallet", BrandModel: "Fossil", SizeDimensions: "small"},
		},
		{
			name: "separate brand and model",
			in:   map[string]any{"item_type": "laptop", "brand": "Dell", "model": "XPS 13"},
			want: AttributeRecord{ItemType: "laptop", BrandModel: "Dell XPS 13"},
		},
		{
			name: "comma separated lists drop placeholders",
			in:   map[string]any{"itemType": "bag", "accessories": "charger, none,  cable ", "contents": "n/a"},
			want: AttributeRecord{ItemType: "bag", Accessories: []string{"charger", "cable"}},
		},
		{
			name: "unknown keys flow into additional details",
			in:   map[string]any{"itemType": "keys", "keychain": "red lanyard", "count": float64(3)},
			want: AttributeRecord{ItemType: "keys", AdditionalDetails: "count: 3; keychain: red lanyard"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeAttributes(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizeAttributes() =\n  %+v\nwant\n  %+v", got, tc.want)
			}
		})
	}
}

func TestAttributeRecord_Complete(t *testing.T) {
	if (AttributeRecord{}).Complete() {
		t.Fatalf("empty record must be incomplete")
	}
	if (AttributeRecord{ItemType: "Unknown"}).Complete() {
		t.Fatalf("unknown item type must be incomplete")
	}
	if !(AttributeRecord{ItemType: "umbrella"}).Complete() {
		t.Fatalf("record with item type must be complete")
	}
}
