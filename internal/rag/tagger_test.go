package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagFilenameConvention(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		partner  string
		docType  DocType
	}{
		{
			name:     "numeric prefix and contract suffix",
			filename: "042_sushi_express_contract_2024.pdf",
			partner:  "sushi express",
			docType:  DocTypeContract,
		},
		{
			name:     "payout report with dashes",
			filename: "burger-palace-payout-2024.pdf",
			partner:  "burger palace",
			docType:  DocTypePayoutReport,
		},
		{
			name:     "agreement keyword",
			filename: "noodle_house_partnership_agreement.docx",
			partner:  "noodle house",
			docType:  DocTypeContract,
		},
		{
			name:     "remittance statement",
			filename: "taco_town_remittance_statement_2024_03.pdf",
			partner:  "taco town",
			docType:  DocTypePayoutReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tag(tt.filename, "")
			assert.Equal(t, tt.partner, got.Partner)
			assert.Equal(t, tt.docType, got.Type)
		})
	}
}

func TestTagContentFallbackPartnerLine(t *testing.T) {
	got := Tag("contract_2024.pdf", "PARTNERSHIP AGREEMENT\n\nPartner: Sushi Express\nEffective date: 2024-01-01")
	assert.Equal(t, "Sushi Express", got.Partner)
	assert.Equal(t, DocTypeContract, got.Type)
}

func TestTagUnresolvedSentinels(t *testing.T) {
	got := Tag("20240301.pdf", "scanned image, no recognizable text here")
	assert.Equal(t, PartnerUnresolved, got.Partner)
	assert.Equal(t, DocTypeUnknown, got.Type)
}

func TestTagFilenameTypeBeatsContent(t *testing.T) {
	// a contract body that mentions payouts repeatedly must still tag as contract
	body := "This agreement governs payout schedules. Payout timing, payout floors and payout penalties appear in schedule B."
	got := Tag("sushi_express_contract.pdf", body)
	assert.Equal(t, DocTypeContract, got.Type)
}

func TestTagContentTypeWhenFilenameSilent(t *testing.T) {
	got := Tag("scan_0001.pdf", "Monthly payout statement. Total remittance: 2,925.00")
	assert.Equal(t, DocTypePayoutReport, got.Type)
}

func TestTagDeterministic(t *testing.T) {
	a := Tag("042_sushi_express_contract_2024.pdf", "Partner: Someone Else")
	b := Tag("042_sushi_express_contract_2024.pdf", "Partner: Someone Else")
	assert.Equal(t, a, b)
	// filename convention wins over the content line
	assert.Equal(t, "sushi express", a.Partner)
}

func TestNormalizePartner(t *testing.T) {
	assert.Equal(t, NormalizePartner("Sushi Express 24/7"), NormalizePartner("sushi_express_24_7"))
	assert.Equal(t, "sushiexpress", NormalizePartner("Sushi Express"))
	assert.Equal(t, "", NormalizePartner("  ---  "))
}
