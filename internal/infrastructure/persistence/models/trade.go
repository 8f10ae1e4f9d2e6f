package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a daily spot-market offering. Offers are re-fetched over a rolling
// window, so rows are keyed and merged on every sync.
type Offer struct {
	ID               int64           `gorm:"column:id;primaryKey" json:"id"`
	OfferDate        string          `gorm:"column:offer_date;size:8;index" json:"offerDate"` // Jalali yyyymmdd as delivered
	CommodityID      int64           `gorm:"column:commodity_id;index" json:"commodityId"`
	CommodityName    string          `gorm:"column:commodity_name;size:200" json:"commodityName"`
	Symbol           string          `gorm:"column:symbol;size:50" json:"symbol"`
	BrokerID         int64           `gorm:"column:broker_id" json:"brokerId"`
	SupplierID       int64           `gorm:"column:supplier_id" json:"supplierId"`
	ManufacturerID   int64           `gorm:"column:manufacturer_id" json:"manufacturerId"`
	TradingHallID    int64           `gorm:"column:trading_hall_id" json:"tradingHallId"`
	ContractTypeID   int64           `gorm:"column:contract_type_id" json:"contractTypeId"`
	OfferModeID      int64           `gorm:"column:offer_mode_id" json:"offerModeId"`
	OfferTypeID      int64           `gorm:"column:offer_type_id" json:"offerTypeId"`
	PackagingTypeID  int64           `gorm:"column:packaging_type_id" json:"packagingTypeId"`
	SettlementTypeID int64           `gorm:"column:settlement_type_id" json:"settlementTypeId"`
	MeasurementUnit  string          `gorm:"column:measurement_unit;size:50" json:"measurementUnit"`
	CurrencyUnit     string          `gorm:"column:currency_unit;size:50" json:"currencyUnit"`
	InitPrice        decimal.Decimal `gorm:"column:init_price;type:numeric(20,4)" json:"initPrice"`
	InitVolume       decimal.Decimal `gorm:"column:init_volume;type:numeric(20,4)" json:"initVolume"`
	MinPrice         decimal.Decimal `gorm:"column:min_price;type:numeric(20,4)" json:"minPrice"`
	MaxPrice         decimal.Decimal `gorm:"column:max_price;type:numeric(20,4)" json:"maxPrice"`
	LotSize          decimal.Decimal `gorm:"column:lot_size;type:numeric(20,4)" json:"lotSize"`
	DeliveryDate     string          `gorm:"column:delivery_date;size:8" json:"deliveryDate"`
	DeliveryPlaceID  int64           `gorm:"column:delivery_place_id" json:"deliveryPlaceId"`
	Description      string          `gorm:"column:description;type:text" json:"description"`
}

// TableName implements the gorm table-name convention
func (Offer) TableName() string { return "offers" }

// OfferKey identifies offer rows during upsert.
var OfferKey = &KeyDescriptor[Offer]{Column: "id", Value: func(m *Offer) any { return m.ID }}

// TradeReport is a per-commodity daily trading summary. The upstream feed
// carries no stable identifier, so rows are append-only: re-fetching a day
// inserts new rows. RowID is a local surrogate and never a sync key.
type TradeReport struct {
	RowID           int64           `gorm:"column:row_id;primaryKey;autoIncrement" json:"-"`
	ReportDate      string          `gorm:"column:report_date;size:8;index" json:"reportDate"`
	CommodityName   string          `gorm:"column:commodity_name;size:200" json:"commodityName"`
	Symbol          string          `gorm:"column:symbol;size:50" json:"symbol"`
	BrokerName      string          `gorm:"column:broker_name;size:200" json:"brokerName"`
	SupplierName    string          `gorm:"column:supplier_name;size:200" json:"supplierName"`
	ContractType    string          `gorm:"column:contract_type;size:100" json:"contractType"`
	MinPrice        decimal.Decimal `gorm:"column:min_price;type:numeric(20,4)" json:"minPrice"`
	MaxPrice        decimal.Decimal `gorm:"column:max_price;type:numeric(20,4)" json:"maxPrice"`
	ClosePrice      decimal.Decimal `gorm:"column:close_price;type:numeric(20,4)" json:"closePrice"`
	OfferVolume     decimal.Decimal `gorm:"column:offer_volume;type:numeric(20,4)" json:"offerVolume"`
	DemandVolume    decimal.Decimal `gorm:"column:demand_volume;type:numeric(20,4)" json:"demandVolume"`
	TradeVolume     decimal.Decimal `gorm:"column:trade_volume;type:numeric(20,4)" json:"tradeVolume"`
	TradeValue      decimal.Decimal `gorm:"column:trade_value;type:numeric(24,4)" json:"tradeValue"`
	DeliveryDate    string          `gorm:"column:delivery_date;size:8" json:"deliveryDate"`
	FetchedAt       time.Time       `gorm:"column:fetched_at;autoCreateTime" json:"-"`
	MeasurementUnit string          `gorm:"column:measurement_unit;size:50" json:"measurementUnit"`
}

// TableName implements the gorm table-name convention
func (TradeReport) TableName() string { return "trade_reports" }
