package ingest

import "testing"

func TestExtractTitleFields(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		reference string
		address   string
		desc      string
	}{
		{
			name:      "street and suburb rejoined",
			title:     "PLN-24-0109 - 12 Main Street, Longford: Construct a shed",
			reference: "PLN-24-0109",
			address:   "12 Main Street, Longford",
			desc:      "Construct a shed",
		},
		{
			name:      "address without suburb",
			title:     "PLN-25-0001 - 5 High Street: New dwelling",
			reference: "PLN-25-0001",
			address:   "5 High Street",
			desc:      "New dwelling",
		},
		{
			name:      "surrounding whitespace trimmed",
			title:     "  PLN-24-0200 -  1 Wellington Street, Longford :  Two lot subdivision  ",
			reference: "PLN-24-0200",
			address:   "1 Wellington Street, Longford",
			desc:      "Two lot subdivision",
		},
		{
			name:      "no reference code yields nothing to key on",
			title:     "Amended plans - 12 Main Street: Construct a shed",
			reference: "",
			address:   "",
			desc:      "Construct a shed",
		},
		{
			name:      "reference only",
			title:     "PLN-24-0300",
			reference: "PLN-24-0300",
			address:   "",
			desc:      "",
		},
		{
			name:      "no colon leaves address and description absent",
			title:     "PLN-24-0301 - 9 Smith Street Perth",
			reference: "PLN-24-0301",
			address:   "",
			desc:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractTitleFields(tt.title)
			if got.CouncilReference != tt.reference {
				t.Errorf("reference: expected %q, got %q", tt.reference, got.CouncilReference)
			}
			if got.Address != tt.address {
				t.Errorf("address: expected %q, got %q", tt.address, got.Address)
			}
			if got.Description != tt.desc {
				t.Errorf("description: expected %q, got %q", tt.desc, got.Description)
			}
		})
	}
}

func TestExtractDescriptorFields(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		titleRef   string
		desc       string
	}{
		{
			name:       "certificate prefix stripped",
			descriptor: "(CT 21938/12) - Outbuilding addition",
			titleRef:   "21938/12",
			desc:       "Outbuilding addition",
		},
		{
			name:       "bare folio without prefix",
			descriptor: "(153811/1) - Boundary adjustment",
			titleRef:   "153811/1",
			desc:       "Boundary adjustment",
		},
		{
			name:       "description without title reference",
			descriptor: "Notice of amended plans - Change of use",
			titleRef:   "",
			desc:       "Change of use",
		},
		{
			name:       "title reference without description",
			descriptor: "(CT 21938/12)",
			titleRef:   "21938/12",
			desc:       "",
		},
		{
			name:       "unstructured caption yields nothing",
			descriptor: "Public notice",
			titleRef:   "",
			desc:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDescriptorFields(tt.descriptor)
			if got.TitleReference != tt.titleRef {
				t.Errorf("title reference: expected %q, got %q", tt.titleRef, got.TitleReference)
			}
			if got.Description != tt.desc {
				t.Errorf("description: expected %q, got %q", tt.desc, got.Description)
			}
		})
	}
}
