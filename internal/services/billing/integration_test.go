package billing_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"billing-backend/internal/models"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB connects to a dedicated test database. Set TEST_DATABASE_URL to
// run these tests; they truncate the billing tables.
func setupTestDB(t *testing.T) *gorm.DB {
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Customer{}, &models.Product{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Payment{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.Exec(`TRUNCATE TABLE payments, invoice_items, invoices, products, customers CASCADE`).Error; err != nil {
		t.Fatalf("failed to clean test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*billing.Service, *repository.CustomerRepository, *repository.ProductRepository, *repository.InvoiceRepository) {
	db := setupTestDB(t)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	svc := billing.NewService(invoiceRepo, customerRepo, productRepo, paymentRepo)
	return svc, customerRepo, productRepo, invoiceRepo
}

func seedCustomerAndProduct(t *testing.T, customers *repository.CustomerRepository, products *repository.ProductRepository, stock int) (*models.Customer, *models.Product) {
	customer := &models.Customer{ID: uuid.New(), Name: "Acme Traders", Email: "acme@example.com"}
	if err := customers.Create(customer); err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Steel Bottle",
		Price: decimal.RequireFromString("250.00"),
		Stock: stock,
	}
	if err := products.Create(product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return customer, product
}

func TestCreateInvoiceLifecycle(t *testing.T) {
	svc, customers, products, invoices := newTestService(t)
	customer, product := seedCustomerAndProduct(t, customers, products, 10)

	inv, err := svc.CreateInvoice(billing.CreateInvoiceInput{
		CustomerID: customer.ID,
		UserID:     uuid.New(),
		DueDate:    time.Now().AddDate(0, 0, 14),
		TaxPercent: decimal.RequireFromString("18"),
		Items:      []billing.ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if !strings.HasPrefix(inv.InvoiceNumber, "INV-") {
		t.Errorf("invoice number %q missing INV- prefix", inv.InvoiceNumber)
	}
	if inv.TotalAmount.StringFixed(2) != "590.00" {
		t.Errorf("total = %s, want 590.00", inv.TotalAmount.StringFixed(2))
	}
	if inv.Status != models.InvoiceStatusPending {
		t.Errorf("status = %q, want Pending", inv.Status)
	}

	// Stock decremented by the ordered quantity.
	p, err := products.GetByID(product.ID)
	if err != nil {
		t.Fatalf("failed to reload product: %v", err)
	}
	if p.Stock != 8 {
		t.Errorf("stock = %d, want 8", p.Stock)
	}

	// A partial payment flips the status.
	if err := svc.RecordPayment(&models.Payment{
		InvoiceID: inv.ID,
		Amount:    decimal.RequireFromString("200.00"),
		Method:    models.PaymentMethodCash,
	}); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	inv, err = invoices.GetByID(inv.ID)
	if err != nil {
		t.Fatalf("failed to reload invoice: %v", err)
	}
	if inv.Status != models.InvoiceStatusPartiallyPaid {
		t.Errorf("status after partial payment = %q, want Partially Paid", inv.Status)
	}
	if inv.DueAmount.StringFixed(2) != "390.00" {
		t.Errorf("due = %s, want 390.00", inv.DueAmount.StringFixed(2))
	}

	// MarkPaid settles the remainder.
	payment, err := svc.MarkPaid(inv.ID)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if payment.Amount.StringFixed(2) != "390.00" {
		t.Errorf("settlement amount = %s, want 390.00", payment.Amount.StringFixed(2))
	}
	inv, _ = invoices.GetByID(inv.ID)
	if inv.Status != models.InvoiceStatusPaid {
		t.Errorf("status after settlement = %q, want Paid", inv.Status)
	}

	// Marking a settled invoice paid again reports nothing due.
	if _, err := svc.MarkPaid(inv.ID); err != billing.ErrNothingDue {
		t.Errorf("second MarkPaid error = %v, want ErrNothingDue", err)
	}
}

func TestUpdateInvoiceStockDiff(t *testing.T) {
	svc, customers, products, _ := newTestService(t)
	customer, product := seedCustomerAndProduct(t, customers, products, 10)

	inv, err := svc.CreateInvoice(billing.CreateInvoiceInput{
		CustomerID: customer.ID,
		UserID:     uuid.New(),
		DueDate:    time.Now().AddDate(0, 0, 7),
		Items:      []billing.ItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	// 3 -> 5 consumes two more units.
	if _, err := svc.UpdateInvoice(inv.ID, billing.UpdateInvoiceInput{
		Items: []billing.ItemInput{{ProductID: product.ID, Quantity: 5}},
	}); err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}
	p, _ := products.GetByID(product.ID)
	if p.Stock != 5 {
		t.Errorf("stock after increase = %d, want 5", p.Stock)
	}

	// 5 -> 1 returns four units.
	if _, err := svc.UpdateInvoice(inv.ID, billing.UpdateInvoiceInput{
		Items: []billing.ItemInput{{ProductID: product.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}
	p, _ = products.GetByID(product.ID)
	if p.Stock != 9 {
		t.Errorf("stock after decrease = %d, want 9", p.Stock)
	}
}

func TestCreateInvoiceUnknownCustomer(t *testing.T) {
	svc, _, products, _ := newTestService(t)
	product := &models.Product{ID: uuid.New(), Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5}
	if err := products.Create(product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	_, err := svc.CreateInvoice(billing.CreateInvoiceInput{
		CustomerID: uuid.New(),
		UserID:     uuid.New(),
		DueDate:    time.Now().AddDate(0, 0, 7),
		Items:      []billing.ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != billing.ErrCustomerNotFound {
		t.Errorf("error = %v, want ErrCustomerNotFound", err)
	}
}
