package abm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/jobs"
)

func tree() []domain.Category {
	return []domain.Category{
		{IDKey: 1, Name: "A", Subcategories: []domain.Category{
			{IDKey: 2, Name: "B", ParentID: parent(1)},
			{IDKey: 3, Name: "C", ParentID: parent(1)},
		}},
		{IDKey: 4, Name: "D"},
	}
}

func TestFindCategoryForItemSelectsParentOfChild(t *testing.T) {
	sel := FindCategoryForItem(2, tree())
	require.NotNil(t, sel.Selected)
	assert.Equal(t, int64(1), sel.Selected.IDKey)
	require.Len(t, sel.Subcategories, 2)
	assert.Equal(t, "B", sel.Subcategories[0].Name)
	assert.Equal(t, "C", sel.Subcategories[1].Name)
	assert.Equal(t, int64(2), sel.SubcategoryID)

	sel = FindCategoryForItem(4, tree())
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "D", sel.Selected.Name)
	assert.Empty(t, sel.Subcategories)

	assert.Nil(t, FindCategoryForItem(42, tree()).Selected)
}

func TestHandleCategorySelectionWaitsForChild(t *testing.T) {
	d := NewDraft(domain.KindIngredient, nil)
	HandleCategorySelection(1, d, tree())
	assert.Equal(t, "", d.Get("category_id"))
	assert.Len(t, d.Selection.Subcategories, 2)

	HandleSubcategorySelection(3, d)
	assert.Equal(t, "3", d.Get("category_id"))

	HandleCategorySelection(4, d, tree())
	assert.Equal(t, "4", d.Get("category_id"))
	assert.Empty(t, d.Selection.Subcategories)
}

func TestBuildTreeFromFlatList(t *testing.T) {
	flat := []domain.Category{
		{IDKey: 1, Name: "A"},
		{IDKey: 2, Name: "B", ParentID: parent(1)},
		{IDKey: 3, Name: "C"},
	}
	built := BuildTree(flat)
	require.Len(t, built, 2)
	require.Len(t, built[0].Subcategories, 1)
	assert.Equal(t, "B", built[0].Subcategories[0].Name)
	assert.Len(t, Flatten(built), 3)
}

func TestNewDraftDefaultsAndFlattening(t *testing.T) {
	d := NewDraft(domain.KindInventory, nil)
	assert.False(t, d.IsEdit())
	assert.Equal(t, "manufactured", d.Get("product_type"))
	assert.True(t, d.Checked("active"))

	product := domain.Product{
		IDKey:       7,
		Name:        "Pizza",
		ProductType: domain.ProductManufactured,
		Price:       decimal.NewFromInt(1500),
		Category:    &domain.Category{IDKey: 2, Name: "B"},
		Details: []domain.ItemDetail{
			{InventoryItem: &domain.ItemRef{IDKey: 11, Name: "Harina"}, Quantity: decimal.RequireFromString("0.5")},
		},
	}
	d = NewDraft(domain.KindInventory, product)
	assert.True(t, d.IsEdit())
	assert.Equal(t, "2", d.Get("category_id"))
	require.Len(t, d.Details, 1)
	assert.Equal(t, int64(11), d.Details[0].ItemID)
	assert.Equal(t, "0.5", d.Details[0].Quantity)
	assert.NotEmpty(t, d.Details[0].TempID)

	emp := NewDraft(domain.KindEmployee, domain.Employee{User: domain.User{IDKey: 3, FullName: "Ana", Role: "cajero"}})
	assert.Equal(t, "", emp.Get("password"))
	assert.Equal(t, "cajero", emp.Get("role"))
}

func TestDraftSetRewritesRows(t *testing.T) {
	d := NewDraft(domain.KindInventory, nil)
	require.NoError(t, d.Set("details.1.inventory_item_id", "8"))
	require.NoError(t, d.Set("ingredients.1.quantity", "2,5"))
	require.NoError(t, d.Set("name", "Lomo"))
	require.Len(t, d.Details, 2)
	assert.Equal(t, int64(8), d.Details[1].ItemID)
	assert.Equal(t, "2,5", d.Details[1].Quantity)
	assert.Equal(t, "Lomo", d.Get("name"))

	assert.ErrorIs(t, d.Set("details.x.quantity", "1"), ErrBadPath)
	assert.ErrorIs(t, d.Set("unknown.0.quantity", "1"), ErrBadPath)
	assert.ErrorIs(t, d.Set("details.0.color", "red"), ErrBadPath)

	d.RemoveRow(RowsDetails, d.Details[0].TempID)
	assert.Len(t, d.Details, 1)
	d.AddRow(RowsDetails)
	assert.Len(t, d.Details, 2)
}

type fakeMailer struct {
	sent []jobs.SendEmailPayload
	err  error
}

func (m *fakeMailer) EnqueueSendEmail(_ context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, payload)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

func TestSubmitValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	mux := chi.NewRouter()
	mux.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")

	d := NewDraft(domain.KindEmployee, nil)
	d.Set("full_name", "Ana")
	d.Set("email", "ana@buensabor.test")
	d.Set("role", "cajero")
	d.Set("password", "abc123")
	d.Set("confirm_password", "abc999")

	_, err := sub.Submit(context.Background(), d)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.Equal(t, "Las contraseñas no coinciden.", d.Errors["confirm_password"])

	d = NewDraft(domain.KindIngredient, nil)
	d.Set("current_stock", "-1")
	_, err = sub.Submit(context.Background(), d)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.Contains(t, d.Errors, "name")
	assert.Contains(t, d.Errors, "current_stock")
	assert.Contains(t, d.Errors, "measurement_unit_id")
	assert.Equal(t, int32(0), calls.Load())
}

func inventoryDraft() *Draft {
	d := NewDraft(domain.KindInventory, nil)
	d.Set("product_type", "inventory")
	d.Set("name", "Coca 500")
	d.Set("price", "1200")
	d.Set("current_stock", "10")
	d.Set("minimum_stock", "2")
	d.Set("purchase_cost", "2")
	d.Set("measurement_unit_id", "1")
	d.Set("category_id", "5")
	return d
}

func TestSubmitInventoryRecordsPurchase(t *testing.T) {
	var purchase map[string]any
	var created map[string]any
	mux := chi.NewRouter()
	mux.Post("/inventory_item/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		_, _ = w.Write([]byte(`{"id_key":33,"name":"Coca 500"}`))
	})
	mux.Post("/inventory_purchase/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&purchase))
		_, _ = w.Write([]byte(`{"id_key":1}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")
	sub.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	out, err := sub.Submit(context.Background(), inventoryDraft())
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.False(t, out.PurchaseFailed)
	require.NotNil(t, out.Purchase)

	assert.Equal(t, false, created["is_ingredient"])
	assert.Equal(t, float64(33), purchase["inventory_item_id"])
	assert.Equal(t, float64(10), purchase["quantity"])
	assert.Equal(t, float64(2), purchase["unit_cost"])
	assert.Equal(t, float64(20), purchase["total_cost"])
	assert.Equal(t, PurchaseNote, purchase["notes"])
	assert.Equal(t, "2024-05-01T12:00:00Z", purchase["purchase_date"])
}

func TestSubmitInventoryPurchaseFailureStillSucceeds(t *testing.T) {
	mux := chi.NewRouter()
	mux.Post("/inventory_item/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id_key":33}`))
	})
	mux.Post("/inventory_purchase/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid"}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")

	out, err := sub.Submit(context.Background(), inventoryDraft())
	require.NoError(t, err)
	assert.True(t, out.PurchaseFailed)
}

func TestSubmitInventoryUpdateOnlyBuysTheIncrease(t *testing.T) {
	var purchases []map[string]any
	mux := chi.NewRouter()
	mux.Put("/inventory_item/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id_key":33}`))
	})
	mux.Post("/inventory_purchase/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		purchases = append(purchases, body)
		_, _ = w.Write([]byte(`{}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")
	original := domain.Product{IDKey: 33, ProductType: domain.ProductInventory, CurrentStock: decimal.NewFromInt(7), Unit: &domain.MeasurementUnit{IDKey: 1}, CategoryID: 5}

	d := NewDraft(domain.KindInventory, original)
	d.Set("name", "Coca 500")
	d.Set("current_stock", "10")
	d.Set("purchase_cost", "3")
	_, err := sub.Submit(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, float64(3), purchases[0]["quantity"])
	assert.Equal(t, float64(9), purchases[0]["total_cost"])

	d = NewDraft(domain.KindInventory, original)
	d.Set("name", "Coca 500")
	d.Set("current_stock", "5")
	_, err = sub.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestSubmitEmployeeGeneratesPassword(t *testing.T) {
	var created map[string]any
	mux := chi.NewRouter()
	mux.Post("/user/employees", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		_, _ = w.Write([]byte(`{"id_key":9}`))
	})
	mailer := &fakeMailer{}
	sub := NewSubmitter(newRegistry(t, mux), mailer, nil, "http://app.test/login")

	d := NewDraft(domain.KindEmployee, nil)
	d.Set("full_name", "Ana Pérez")
	d.Set("email", "ana@buensabor.test")
	d.Set("role", "cocinero")

	out, err := sub.Submit(context.Background(), d)
	require.NoError(t, err)
	require.NotNil(t, out.Credentials)
	assert.True(t, out.Credentials.Generated)
	assert.True(t, out.Credentials.Mailed)
	assert.Equal(t, out.Credentials.Password, created["password"])
	assert.GreaterOrEqual(t, len(out.Credentials.Password), 8)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ana@buensabor.test", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, out.Credentials.Password)
}

func TestSubmitEmployeeMailFailureKeepsCredentials(t *testing.T) {
	mux := chi.NewRouter()
	mux.Post("/user/employees", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id_key":9}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), &fakeMailer{err: errors.New("redis down")}, nil, "")

	d := NewDraft(domain.KindEmployee, nil)
	d.Set("full_name", "Ana")
	d.Set("email", "ana@buensabor.test")
	d.Set("role", "cajero")
	d.Set("password", "clave123")
	d.Set("confirm_password", "clave123")

	out, err := sub.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "clave123", out.Credentials.Password)
	assert.False(t, out.Credentials.Generated)
	assert.False(t, out.Credentials.Mailed)
}

func TestSubmitCategoryRoutesByType(t *testing.T) {
	var body map[string]any
	mux := chi.NewRouter()
	mux.Put("/inventory_item_category/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "6", chi.URLParam(r, "id"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")

	d := NewDraft(domain.KindCategory, domain.Category{IDKey: 6, Name: "Quesos", CategoryType: domain.CategoryInventory, Active: true})
	d.Set("parent_id", "")
	_, err := sub.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Nil(t, body["parent_id"])
	assert.Equal(t, "Quesos", body["name"])
}

func TestSubmitPromotionRequiresItems(t *testing.T) {
	sub := NewSubmitter(newRegistry(t, chi.NewRouter()), nil, nil, "")
	d := NewDraft(domain.KindPromotion, nil)
	d.Set("name", "2x1")
	d.Set("discount_percentage", "150")
	_, err := sub.Submit(context.Background(), d)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.Contains(t, d.Errors, "discount_percentage")
	assert.Contains(t, d.Errors, "general")
}

func TestLookupsCategoryListsBothFamilies(t *testing.T) {
	mux := chi.NewRouter()
	mux.Get("/manufactured_item_category/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id_key":1,"name":"Pizzas","subcategories":[{"id_key":2,"name":"Especiales","parent_id":1}]}]`))
	})
	mux.Get("/inventory_item_category/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id_key":1,"name":"Bebidas"}]`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")

	out, err := sub.Lookups(context.Background(), NewDraft(domain.KindCategory, nil))
	require.NoError(t, err)
	require.Len(t, out.ParentOptions, 3)
	assert.Equal(t, "manufactured:1", out.ParentOptions[0].Ref())
	assert.Equal(t, "manufactured:2", out.ParentOptions[1].Ref())
	assert.Equal(t, "Especiales", out.ParentOptions[1].Name)
	assert.Equal(t, "inventory:1", out.ParentOptions[2].Ref())

	edit := NewDraft(domain.KindCategory, domain.Category{IDKey: 1, Name: "Pizzas", CategoryType: domain.CategoryManufactured})
	out, err = sub.Lookups(context.Background(), edit)
	require.NoError(t, err)
	refs := make([]string, 0, len(out.ParentOptions))
	for _, c := range out.ParentOptions {
		refs = append(refs, c.Ref())
	}
	assert.Equal(t, []string{"manufactured:2", "inventory:1"}, refs)
}

func TestCategoryParentMustShareFamily(t *testing.T) {
	sub := NewSubmitter(newRegistry(t, chi.NewRouter()), nil, nil, "")
	d := NewDraft(domain.KindCategory, nil)
	d.Set("name", "Gaseosas")
	d.Set("parent_id", "inventory:1")
	sub.Validate(d)
	assert.Contains(t, d.Errors, "parent_id")

	d = NewDraft(domain.KindCategory, domain.Category{IDKey: 4, Name: "Vinos", CategoryType: domain.CategoryInventory, ParentID: parent(1)})
	assert.Equal(t, "inventory:1", d.Get("parent_id"))
	sub.Validate(d)
	assert.NotContains(t, d.Errors, "parent_id")
	kind, id := d.Parent()
	assert.Equal(t, domain.CategoryInventory, kind)
	assert.Equal(t, int64(1), id)

	d.Set("parent_id", "inventory:4")
	sub.Validate(d)
	assert.Contains(t, d.Errors, "parent_id")
}

func TestSubmitCategorySendsParentID(t *testing.T) {
	var body map[string]any
	mux := chi.NewRouter()
	mux.Post("/manufactured_item_category/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"id_key":9}`))
	})
	sub := NewSubmitter(newRegistry(t, mux), nil, nil, "")

	d := NewDraft(domain.KindCategory, nil)
	d.Set("name", "Calzones")
	d.Set("parent_id", "manufactured:2")
	_, err := sub.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, float64(2), body["parent_id"])
}
