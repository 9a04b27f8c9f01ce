package norms

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/coursegen-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursegen-backend/internal/domain"
)

func TestNormRepoUpsertReplacesRules(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewNormRepo(db, testutil.Logger(t))
	ctx := context.Background()

	norm := &types.NormRecord{NormID: "nfc18-510", Title: "Prévention du risque électrique", Sommaire: datatypes.JSON([]byte(`[]`))}
	rules := []*types.NormRuleRecord{
		{RuleID: "r2", Titre: "Consignation", Article: "Art. 2", Keywords: datatypes.JSON([]byte(`["sécurité"]`))},
		{RuleID: "r1", Titre: "Habilitation", Article: "Art. 1", Keywords: datatypes.JSON([]byte(`[]`))},
	}
	if err := repo.UpsertCorpus(ctx, tx, norm, rules); err != nil {
		t.Fatalf("UpsertCorpus: %v", err)
	}

	got, err := repo.GetRules(ctx, tx, "nfc18-510")
	if err != nil {
		t.Fatalf("GetRules: %v", err)
	}
	if len(got) != 2 || got[0].RuleID != "r2" || got[1].Position != 1 {
		t.Fatalf("GetRules: expected corpus order, got %+v", got)
	}

	norm2 := &types.NormRecord{NormID: "nfc18-510", Title: "Révision", Sommaire: datatypes.JSON([]byte(`[]`))}
	if err := repo.UpsertCorpus(ctx, tx, norm2, []*types.NormRuleRecord{{RuleID: "r9", Titre: "Nouvelle", Keywords: datatypes.JSON([]byte(`[]`))}}); err != nil {
		t.Fatalf("UpsertCorpus (second): %v", err)
	}
	got, err = repo.GetRules(ctx, tx, "nfc18-510")
	if err != nil {
		t.Fatalf("GetRules (second): %v", err)
	}
	if len(got) != 1 || got[0].RuleID != "r9" {
		t.Fatalf("GetRules: expected replaced rules, got %+v", got)
	}

	list, err := repo.ListNorms(ctx, tx)
	if err != nil {
		t.Fatalf("ListNorms: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Révision" {
		t.Fatalf("ListNorms: unexpected result %+v", list)
	}
}
