package abm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/auth"
	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/jobs"
)

const generatedPasswordLength = 10

// PurchaseNote is attached to purchases recorded from the product form.
const PurchaseNote = "Ingreso de stock registrado desde el formulario de producto"

// ErrInvalidDraft is returned when local validation fails. Draft.Errors holds the details.
var ErrInvalidDraft = shared.NewValidationError("form", "Revisá los campos marcados.")

// Mailer queues outgoing email.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Credentials are shown once after an employee account is created.
type Credentials struct {
	FullName  string
	Email     string
	Password  string
	Generated bool
	Mailed    bool
}

// Outcome reports what a submit did besides the primary write.
type Outcome struct {
	Created        bool
	Credentials    *Credentials
	Purchase       *domain.InventoryPurchase
	PurchaseFailed bool
}

// Lookups are the option lists a form needs.
type Lookups struct {
	Units         []domain.MeasurementUnit
	CategoryTree  []domain.Category
	ParentOptions []domain.Category
	Ingredients   []domain.Ingredient
	Manufactured  []domain.Product
	Products      []domain.Product
}

// Submitter validates drafts and writes them to the backend.
type Submitter struct {
	registry *services.Registry
	mailer   Mailer
	logger   *slog.Logger
	loginURL string
	now      func() time.Time
}

// NewSubmitter constructs a Submitter. mailer may be nil when no queue is configured.
func NewSubmitter(registry *services.Registry, mailer Mailer, logger *slog.Logger, loginURL string) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{registry: registry, mailer: mailer, logger: logger, loginURL: loginURL, now: time.Now}
}

// Lookups loads the option lists of d's form in parallel.
func (s *Submitter) Lookups(ctx context.Context, d *Draft) (Lookups, error) {
	var (
		out                     Lookups
		manufactured, inventory []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)

	needsUnits := d.Kind == domain.KindIngredient || (d.Kind == domain.KindInventory && d.ProductType() == domain.ProductInventory)
	if needsUnits {
		g.Go(func() (err error) {
			out.Units, err = s.registry.Units.All(gctx)
			return err
		})
	}

	switch d.Kind {
	case domain.KindIngredient:
		g.Go(func() error {
			cats, err := s.registry.InventoryCategories.All(gctx)
			out.CategoryTree = BuildTree(cats)
			return err
		})
	case domain.KindInventory:
		g.Go(func() error {
			list := s.registry.ManufacturedCategories.All
			if d.ProductType() == domain.ProductInventory {
				list = s.registry.InventoryCategories.All
			}
			cats, err := list(gctx)
			out.CategoryTree = BuildTree(cats)
			return err
		})
		if d.ProductType() == domain.ProductManufactured {
			g.Go(func() (err error) {
				out.Ingredients, err = s.registry.Ingredients.All(gctx)
				return err
			})
		}
	case domain.KindCategory:
		g.Go(func() (err error) {
			manufactured, err = s.registry.ManufacturedCategories.All(gctx)
			return err
		})
		g.Go(func() (err error) {
			inventory, err = s.registry.InventoryCategories.All(gctx)
			return err
		})
	case domain.KindPromotion:
		g.Go(func() (err error) {
			out.Manufactured, err = s.registry.ManufacturedItems.All(gctx)
			return err
		})
		g.Go(func() (err error) {
			out.Products, err = s.registry.InventoryProducts.All(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Lookups{}, err
	}
	if len(out.CategoryTree) > 0 {
		SyncCategory(d, out.CategoryTree)
	}
	if d.Kind == domain.KindCategory {
		out.ParentOptions = parentOptions(d,
			tagCategories(manufactured, domain.CategoryManufactured),
			tagCategories(inventory, domain.CategoryInventory))
	}
	return out, nil
}

// parentOptions lists every category of both families, subcategories
// included, except the one being edited.
func parentOptions(d *Draft, families ...[]domain.Category) []domain.Category {
	var out []domain.Category
	seen := make(map[string]bool)
	for _, cats := range families {
		for _, c := range cats {
			ref := c.Ref()
			if seen[ref] || (d.IsEdit() && c.CategoryType == d.CategoryType() && c.IDKey == d.ID) {
				continue
			}
			seen[ref] = true
			c.Subcategories = nil
			out = append(out, c)
		}
	}
	return out
}

// tagCategories flattens nested responses and stamps every row with kind.
func tagCategories(cats []domain.Category, kind domain.CategoryType) []domain.Category {
	out := make([]domain.Category, 0, len(cats))
	for _, c := range Flatten(cats) {
		c.CategoryType = kind
		out = append(out, c)
	}
	return out
}

// SyncCategory rebuilds the picker state of d from its posted values.
func SyncCategory(d *Draft, tree []domain.Category) {
	parent := d.Int64("category_parent")
	current := d.Int64("category_id")
	if parent == 0 {
		sel := FindCategoryForItem(current, tree)
		d.Selection = sel
		if sel.Selected != nil {
			d.Set("category_parent", formatID(sel.Selected.IDKey))
		}
		return
	}
	HandleCategorySelection(parent, d, tree)
	if current != 0 && len(d.Selection.Subcategories) > 0 {
		HandleSubcategorySelection(current, d)
	}
}

// Validate runs every local check and stores the messages on d.
func (s *Submitter) Validate(d *Draft) bool {
	schema, ok := SchemaFor(d.Kind)
	if !ok {
		d.Errors = map[string]string{"general": "Tipo de registro desconocido."}
		return false
	}
	errs := schema.Validate(d)
	d.validateRows(errs)

	if !d.IsEdit() {
		password := d.Get("password")
		switch {
		case d.Kind == domain.KindClient, d.Kind == domain.KindEmployee && password != "":
			if err := auth.ValidatePassword(password, d.Get("confirm_password")); err != nil {
				var validation *shared.ValidationError
				if errors.As(err, &validation) {
					errs[validation.Field] = validation.Message
				}
			}
		}
	}
	d.Errors = errs
	return len(errs) == 0
}

// Submit validates d and creates or updates the record. Validation failures
// return ErrInvalidDraft before any network call.
func (s *Submitter) Submit(ctx context.Context, d *Draft) (Outcome, error) {
	if !s.Validate(d) {
		return Outcome{}, ErrInvalidDraft
	}
	out := Outcome{Created: !d.IsEdit()}

	var err error
	switch d.Kind {
	case domain.KindEmployee:
		err = s.submitEmployee(ctx, d, &out)
	case domain.KindClient:
		err = save(ctx, s.registry.Clients, d.ID, d.userInput(shared.RoleClient))
	case domain.KindIngredient:
		err = save(ctx, s.registry.Ingredients, d.ID, d.inventoryInput(true))
	case domain.KindInventory:
		err = s.submitProduct(ctx, d, &out)
	case domain.KindCategory:
		res := s.registry.ManufacturedCategories
		if d.CategoryType() == domain.CategoryInventory {
			res = s.registry.InventoryCategories
		}
		err = save(ctx, res, d.ID, d.categoryInput())
	case domain.KindPromotion:
		err = save(ctx, s.registry.Promotions, d.ID, d.promotionInput())
	default:
		err = fmt.Errorf("abm: unknown kind %q", d.Kind)
	}
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func save[T any, In any](ctx context.Context, res services.Resource[T, In], id int64, in In) error {
	if id == 0 {
		_, err := res.Create(ctx, in)
		return err
	}
	_, err := res.Update(ctx, id, in)
	return err
}

func (s *Submitter) submitEmployee(ctx context.Context, d *Draft, out *Outcome) error {
	in := d.userInput(d.Get("role"))
	if d.IsEdit() {
		_, err := s.registry.Employees.Update(ctx, d.ID, in)
		return err
	}

	generated := false
	if in.Password == "" {
		password, err := auth.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return fmt.Errorf("abm: generate password: %w", err)
		}
		in.Password = password
		generated = true
	}
	if _, err := s.registry.Employees.Create(ctx, in); err != nil {
		return err
	}

	creds := &Credentials{FullName: in.FullName, Email: in.Email, Password: in.Password, Generated: generated}
	if s.mailer != nil {
		payload := jobs.CredentialsEmail(in.Email, in.FullName, in.Password, s.loginURL)
		if _, err := s.mailer.EnqueueSendEmail(ctx, payload); err != nil {
			s.logger.Warn("enqueue credentials email", slog.String("email", in.Email), slog.Any("error", err))
		} else {
			creds.Mailed = true
		}
	}
	out.Credentials = creds
	return nil
}

func (s *Submitter) submitProduct(ctx context.Context, d *Draft, out *Outcome) error {
	if d.ProductType() == domain.ProductManufactured {
		return save(ctx, s.registry.ManufacturedItems, d.ID, d.manufacturedInput())
	}

	in := d.inventoryInput(false)
	var (
		saved    domain.Product
		err      error
		previous decimal.Decimal
	)
	if d.IsEdit() {
		if prior, ok := d.Original.(domain.Product); ok {
			previous = prior.CurrentStock
		}
		saved, err = s.registry.InventoryProducts.Update(ctx, d.ID, in)
	} else {
		saved, err = s.registry.InventoryProducts.Create(ctx, in)
	}
	if err != nil {
		return err
	}

	itemID := saved.IDKey
	if itemID == 0 {
		itemID = d.ID
	}
	delta := in.CurrentStock.Sub(previous)
	if !delta.IsPositive() || itemID == 0 {
		return nil
	}

	purchase := domain.InventoryPurchase{
		InventoryItemID: itemID,
		Quantity:        delta,
		UnitCost:        in.PurchaseCost,
		TotalCost:       delta.Mul(in.PurchaseCost),
		Notes:           PurchaseNote,
		PurchaseDate:    domain.Timestamp{Time: s.now()},
	}
	out.Purchase = &purchase
	if _, err := s.registry.Purchases.Create(ctx, purchase); err != nil {
		s.logger.Warn("record stock purchase", slog.Int64("item_id", itemID), slog.Any("error", err))
		out.PurchaseFailed = true
	}
	return nil
}

// AdjustStock posts a validated stock dialog for rec.
func (s *Submitter) AdjustStock(ctx context.Context, rec domain.Record, form StockForm) (map[string]string, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return errs, ErrInvalidDraft
	}
	if err := s.registry.Purchases.AddStock(ctx, rec.Key(), form.Adjustment()); err != nil {
		return nil, err
	}
	return nil, nil
}
