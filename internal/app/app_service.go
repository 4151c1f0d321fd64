package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"orderstock/internal/ai"
	"orderstock/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type appService struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	stock       core.StockService
	orders      core.OrderService
	allocations core.AllocationService
	claims      core.ClaimService
	catalog     core.CatalogService
	seq         core.SequenceService
	agent       ai.AgentService
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil when no API key is configured; ProposeAdjustment then fails
// with a clear error while everything else keeps working.
func NewAppService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	stock core.StockService,
	orders core.OrderService,
	allocations core.AllocationService,
	claims core.ClaimService,
	catalog core.CatalogService,
	seq core.SequenceService,
	agent ai.AgentService,
) ApplicationService {
	return &appService{
		pool:        pool,
		logger:      logger,
		stock:       stock,
		orders:      orders,
		allocations: allocations,
		claims:      claims,
		catalog:     catalog,
		seq:         seq,
		agent:       agent,
	}
}

// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var if
// set; otherwise expects exactly one company in the database.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if code := os.Getenv("COMPANY_CODE"); code != "" {
		return s.catalog.GetCompany(ctx, code)
	}

	var c core.Company
	rows, err := s.pool.Query(ctx, "SELECT id, company_code, name, base_currency FROM companies ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
		if count > 1 {
			return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE to choose one")
		}
		if err := rows.Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("no companies found; run the seed first")
	}
	return &c, nil
}

// ── Master data ───────────────────────────────────────────────────────────────

func (s *appService) CreateChannel(ctx context.Context, companyCode, code, name string) (*core.SalesChannel, error) {
	channel, err := s.catalog.CreateChannel(ctx, companyCode, code, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("channel created", zap.String("company", companyCode), zap.String("code", channel.Code))
	return channel, nil
}

func (s *appService) CreateWarehouse(ctx context.Context, companyCode, code, name string) (*core.Warehouse, error) {
	warehouse, err := s.catalog.CreateWarehouse(ctx, companyCode, code, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("warehouse created", zap.String("company", companyCode), zap.String("code", warehouse.Code))
	return warehouse, nil
}

func (s *appService) CreateProduct(ctx context.Context, companyCode, code, name, unitPrice string) (*core.Product, error) {
	price, err := core.MoneyFromString(unitPrice)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.CreateProduct(ctx, companyCode, code, name, price)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created",
		zap.String("company", companyCode),
		zap.String("code", product.Code),
		zap.String("unit_price", product.UnitPrice.String()))
	return product, nil
}

func (s *appService) ListChannels(ctx context.Context, companyCode string) (*ChannelListResult, error) {
	channels, err := s.catalog.GetChannels(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &ChannelListResult{Channels: channels}, nil
}

func (s *appService) ListWarehouses(ctx context.Context, companyCode string) (*WarehouseListResult, error) {
	warehouses, err := s.catalog.GetWarehouses(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: warehouses}, nil
}

func (s *appService) ListProducts(ctx context.Context, companyCode string) (*ProductListResult, error) {
	products, err := s.catalog.GetProducts(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

// ── Stock ledger ──────────────────────────────────────────────────────────────

func (s *appService) GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error) {
	levels, err := s.stock.GetStockLevels(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, CompanyCode: companyCode}, nil
}

func (s *appService) GetStockMovements(ctx context.Context, companyCode, warehouseCode, productCode string) (*MovementsResult, error) {
	rec, err := s.stock.FindStockRecord(ctx, companyCode, warehouseCode, productCode)
	if err != nil {
		return nil, err
	}
	movements, err := s.stock.GetMovements(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &MovementsResult{StockRecordID: rec.ID, Movements: movements}, nil
}

func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*StockRecordResult, error) {
	rec, err := s.stock.ReceiveStock(ctx, req.CompanyCode, req.WarehouseCode, req.ProductCode, req.Qty, req.Reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock received",
		zap.String("company", req.CompanyCode),
		zap.String("product", req.ProductCode),
		zap.String("warehouse", req.WarehouseCode),
		zap.Int64("qty", req.Qty.Int64()))
	return &StockRecordResult{Record: rec}, nil
}

// onRecord resolves the stock record by codes and applies op to its id.
func (s *appService) onRecord(ctx context.Context, companyCode, warehouseCode, productCode string,
	op func(recordID int) (*core.StockRecord, error)) (*StockRecordResult, error) {

	rec, err := s.stock.FindStockRecord(ctx, companyCode, warehouseCode, productCode)
	if err != nil {
		return nil, err
	}
	updated, err := op(rec.ID)
	if err != nil {
		return nil, err
	}
	return &StockRecordResult{Record: updated}, nil
}

func (s *appService) ReserveStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error) {
	return s.onRecord(ctx, companyCode, warehouseCode, productCode, func(id int) (*core.StockRecord, error) {
		return s.stock.ReserveStock(ctx, id, qty)
	})
}

func (s *appService) ReleaseStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error) {
	return s.onRecord(ctx, companyCode, warehouseCode, productCode, func(id int) (*core.StockRecord, error) {
		return s.stock.ReleaseStock(ctx, id, qty)
	})
}

func (s *appService) ShipStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity, orderID *int) (*StockRecordResult, error) {
	return s.onRecord(ctx, companyCode, warehouseCode, productCode, func(id int) (*core.StockRecord, error) {
		return s.stock.ShipStock(ctx, id, qty, orderID)
	})
}

func (s *appService) AdjustStock(ctx context.Context, companyCode, warehouseCode, productCode string, delta int64, reason string) (*StockRecordResult, error) {
	result, err := s.onRecord(ctx, companyCode, warehouseCode, productCode, func(id int) (*core.StockRecord, error) {
		return s.stock.AdjustStock(ctx, id, delta, reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock adjusted",
		zap.String("company", companyCode),
		zap.String("product", productCode),
		zap.String("warehouse", warehouseCode),
		zap.Int64("delta", delta),
		zap.String("reason", reason))
	return result, nil
}

func (s *appService) SetSafetyStock(ctx context.Context, companyCode, warehouseCode, productCode string, qty core.Quantity) (*StockRecordResult, error) {
	return s.onRecord(ctx, companyCode, warehouseCode, productCode, func(id int) (*core.StockRecord, error) {
		return s.stock.SetSafetyStock(ctx, id, qty)
	})
}

// ── Channel allocations ───────────────────────────────────────────────────────

func (s *appService) AllocateToChannel(ctx context.Context, companyCode, warehouseCode, productCode, channelCode string, qty core.Quantity) (*AllocationResult, error) {
	rec, err := s.stock.FindStockRecord(ctx, companyCode, warehouseCode, productCode)
	if err != nil {
		return nil, err
	}
	alloc, err := s.allocations.AllocateToChannel(ctx, rec.ID, channelCode, qty)
	if err != nil {
		return nil, err
	}
	return &AllocationResult{Allocation: alloc}, nil
}

func (s *appService) DeallocateFromChannel(ctx context.Context, companyCode, warehouseCode, productCode, channelCode string, qty core.Quantity) (*AllocationResult, error) {
	rec, err := s.stock.FindStockRecord(ctx, companyCode, warehouseCode, productCode)
	if err != nil {
		return nil, err
	}
	alloc, err := s.allocations.DeallocateFromChannel(ctx, rec.ID, channelCode, qty)
	if err != nil {
		return nil, err
	}
	return &AllocationResult{Allocation: alloc}, nil
}

func (s *appService) ListAllocations(ctx context.Context, companyCode, warehouseCode, productCode string) (*AllocationListResult, error) {
	rec, err := s.stock.FindStockRecord(ctx, companyCode, warehouseCode, productCode)
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocations.GetAllocations(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &AllocationListResult{StockRecordID: rec.ID, Allocations: allocations}, nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	warehouseCode := req.WarehouseCode
	if warehouseCode == "" {
		wh, err := s.catalog.GetDefaultWarehouse(ctx, req.CompanyCode)
		if err != nil {
			return nil, err
		}
		warehouseCode = wh.Code
	}

	currency := req.Currency
	if currency == "" {
		company, err := s.catalog.GetCompany(ctx, req.CompanyCode)
		if err != nil {
			return nil, err
		}
		currency = company.BaseCurrency
	}

	items := make([]core.OrderItemInput, len(req.Lines))
	for i, l := range req.Lines {
		item, err := toItemInput(l)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	order, err := s.orders.CreateOrder(ctx, req.CompanyCode, req.ChannelCode, warehouseCode, currency,
		core.CustomerInfo{
			Name:            req.CustomerName,
			Phone:           req.CustomerPhone,
			ShippingAddress: req.ShippingAddress,
		}, items, s.seq)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		zap.String("company", req.CompanyCode),
		zap.String("order_number", order.OrderNumber),
		zap.String("channel", order.ChannelCode))
	return &OrderResult{Order: order}, nil
}

func toItemInput(l OrderLineInput) (core.OrderItemInput, error) {
	qty, err := core.NewQuantity(l.Quantity)
	if err != nil {
		return core.OrderItemInput{}, fmt.Errorf("product %s: %w", l.ProductCode, err)
	}
	item := core.OrderItemInput{ProductCode: l.ProductCode, Quantity: qty}
	if strings.TrimSpace(l.UnitPrice) != "" {
		price, err := core.MoneyFromString(l.UnitPrice)
		if err != nil {
			return core.OrderItemInput{}, fmt.Errorf("product %s: %w", l.ProductCode, err)
		}
		item.UnitPrice = &price
	}
	return item, nil
}

// resolveOrderID accepts a numeric order ID or an order number string.
func (s *appService) resolveOrderID(ctx context.Context, ref, companyCode string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	order, err := s.orders.GetOrderByNumber(ctx, companyCode, ref)
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (s *appService) AddOrderItem(ctx context.Context, ref, companyCode string, item OrderLineInput) (*OrderResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	input, err := toItemInput(item)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.AddOrderItem(ctx, orderID, input)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) RemoveOrderItem(ctx context.Context, ref, companyCode string, lineNumber int) (*OrderResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.RemoveOrderItem(ctx, orderID, lineNumber)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

// stepOrder resolves the ref and applies a lifecycle step, logging the result.
func (s *appService) stepOrder(ctx context.Context, ref, companyCode, step string,
	op func(orderID int) (*core.Order, error)) (*OrderResult, error) {

	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	order, err := op(orderID)
	if err != nil {
		var inconsistency *core.StockLedgerInconsistencyError
		if errors.As(err, &inconsistency) {
			s.logger.Error("stock ledger inconsistency",
				zap.Int("order_id", inconsistency.OrderID),
				zap.String("product", inconsistency.ProductCode),
				zap.String("detail", inconsistency.Detail))
		}
		return nil, err
	}
	s.logger.Info("order "+step,
		zap.String("company", companyCode),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))
	return &OrderResult{Order: order}, nil
}

func (s *appService) MarkPaymentPending(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "payment pending", func(id int) (*core.Order, error) {
		return s.orders.MarkPaymentPending(ctx, id)
	})
}

func (s *appService) ConfirmOrder(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "confirmed", func(id int) (*core.Order, error) {
		return s.orders.ConfirmOrder(ctx, id, s.stock)
	})
}

func (s *appService) StartPreparing(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "preparing", func(id int) (*core.Order, error) {
		return s.orders.StartPreparing(ctx, id)
	})
}

func (s *appService) MarkReadyToShip(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "ready to ship", func(id int) (*core.Order, error) {
		return s.orders.MarkReadyToShip(ctx, id)
	})
}

func (s *appService) ShipOrder(ctx context.Context, ref, companyCode, carrier, trackingNumber string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "shipped", func(id int) (*core.Order, error) {
		return s.orders.ShipOrder(ctx, id, carrier, trackingNumber, s.stock)
	})
}

func (s *appService) MarkInDelivery(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "in delivery", func(id int) (*core.Order, error) {
		return s.orders.MarkInDelivery(ctx, id)
	})
}

func (s *appService) MarkDelivered(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "delivered", func(id int) (*core.Order, error) {
		return s.orders.MarkDelivered(ctx, id)
	})
}

func (s *appService) CancelOrder(ctx context.Context, ref, companyCode, reason string) (*OrderResult, error) {
	return s.stepOrder(ctx, ref, companyCode, "cancelled", func(id int) (*core.Order, error) {
		return s.orders.CancelOrder(ctx, id, reason, s.stock)
	})
}

func (s *appService) GetOrder(ctx context.Context, ref, companyCode string) (*OrderResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, companyCode string, status *string) (*OrderListResult, error) {
	var orderStatus *core.OrderStatus
	if status != nil {
		st := core.OrderStatus(strings.ToUpper(*status))
		orderStatus = &st
	}
	orders, err := s.orders.GetOrders(ctx, companyCode, orderStatus)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, CompanyCode: companyCode}, nil
}

// ── Claims ────────────────────────────────────────────────────────────────────

func (s *appService) RequestReturn(ctx context.Context, ref, companyCode, reason string) (*ClaimResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	claim, err := s.claims.RequestReturn(ctx, orderID, reason, s.seq)
	if err != nil {
		return nil, err
	}
	s.logger.Info("return requested", zap.String("claim_number", claim.ClaimNumber), zap.Int("order_id", orderID))
	return &ClaimResult{Claim: claim}, nil
}

func (s *appService) RequestExchange(ctx context.Context, ref, companyCode, reason string) (*ClaimResult, error) {
	orderID, err := s.resolveOrderID(ctx, ref, companyCode)
	if err != nil {
		return nil, err
	}
	claim, err := s.claims.RequestExchange(ctx, orderID, reason, s.seq)
	if err != nil {
		return nil, err
	}
	s.logger.Info("exchange requested", zap.String("claim_number", claim.ClaimNumber), zap.Int("order_id", orderID))
	return &ClaimResult{Claim: claim}, nil
}

func (s *appService) ApproveClaim(ctx context.Context, claimID int) (*ClaimResult, error) {
	claim, err := s.claims.ApproveClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return &ClaimResult{Claim: claim}, nil
}

func (s *appService) RejectClaim(ctx context.Context, claimID int) (*ClaimResult, error) {
	claim, err := s.claims.RejectClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return &ClaimResult{Claim: claim}, nil
}

func (s *appService) CompleteClaim(ctx context.Context, claimID int) (*ClaimResult, error) {
	claim, err := s.claims.CompleteClaim(ctx, claimID, s.stock)
	if err != nil {
		return nil, err
	}
	s.logger.Info("claim completed", zap.String("claim_number", claim.ClaimNumber), zap.String("type", string(claim.Type)))
	return &ClaimResult{Claim: claim}, nil
}

func (s *appService) ListClaims(ctx context.Context, companyCode string, status *string) (*ClaimListResult, error) {
	var claimStatus *core.ClaimStatus
	if status != nil {
		st := core.ClaimStatus(strings.ToUpper(*status))
		claimStatus = &st
	}
	claims, err := s.claims.GetClaims(ctx, companyCode, claimStatus)
	if err != nil {
		return nil, err
	}
	return &ClaimListResult{Claims: claims, CompanyCode: companyCode}, nil
}

// ── AI assistant ──────────────────────────────────────────────────────────────

func (s *appService) ProposeAdjustment(ctx context.Context, text, companyCode string) (*AIResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI agent not configured; set OPENAI_API_KEY")
	}

	levels, err := s.stock.GetStockLevels(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", companyCode)
	for _, l := range levels {
		fmt.Fprintf(&sb, "- product %s (%s) @ warehouse %s: total %d, reserved %d, available %d\n",
			l.ProductCode, l.ProductName, l.WarehouseCode, l.Total, l.Reserved, l.Available)
	}

	response, err := s.agent.ProposeAdjustment(ctx, text, sb.String())
	if err != nil {
		return nil, err
	}

	if response.IsClarificationRequest {
		return &AIResult{IsClarification: true, ClarificationMessage: response.Clarification.Message}, nil
	}
	if response.Proposal.CompanyCode == "" {
		response.Proposal.CompanyCode = companyCode
	}
	return &AIResult{Proposal: response.Proposal}, nil
}

func (s *appService) ApplyAdjustmentProposal(ctx context.Context, proposal core.AdjustmentProposal) (*AdjustmentApplyResult, error) {
	proposal.Normalize()
	if err := proposal.Validate(); err != nil {
		return &AdjustmentApplyResult{}, err
	}

	applied := make([]core.StockRecord, 0, len(proposal.Lines))
	for _, line := range proposal.Lines {
		rec, err := s.stock.FindStockRecord(ctx, proposal.CompanyCode, line.WarehouseCode, line.ProductCode)
		if err != nil {
			return &AdjustmentApplyResult{Applied: applied}, err
		}
		updated, err := s.stock.AdjustStock(ctx, rec.ID, line.DeltaOf(), proposal.Reason)
		if err != nil {
			return &AdjustmentApplyResult{Applied: applied}, err
		}
		s.logger.Info("adjustment applied",
			zap.String("company", proposal.CompanyCode),
			zap.String("product", line.ProductCode),
			zap.String("warehouse", line.WarehouseCode),
			zap.String("delta", line.Delta))
		applied = append(applied, *updated)
	}
	return &AdjustmentApplyResult{Applied: applied}, nil
}
