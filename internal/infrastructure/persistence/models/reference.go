package models

// Reference models are the slowly-changing master-data types pulled once per
// cycle with a single unwindowed fetch. Every one of them is keyed by the
// upstream integer identifier.

// Broker is a brokerage firm licensed on the exchange.
type Broker struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;size:200" json:"name"`
	Code        string `gorm:"column:code;size:50" json:"code"`
	NationalID  string `gorm:"column:national_id;size:20" json:"nationalId"`
	IsActive    bool   `gorm:"column:is_active" json:"isActive"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

// TableName implements the gorm table-name convention
func (Broker) TableName() string { return "brokers" }

// BrokerKey identifies broker rows during upsert.
var BrokerKey = &KeyDescriptor[Broker]{Column: "id", Value: func(m *Broker) any { return m.ID }}

// Commodity is a tradable good listed on the spot market.
type Commodity struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;size:200" json:"name"`
	Symbol      string `gorm:"column:symbol;size:50" json:"symbol"`
	SubGroupID  int64  `gorm:"column:sub_group_id" json:"subGroupId"`
	UnitID      int64  `gorm:"column:unit_id" json:"unitId"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

func (Commodity) TableName() string { return "commodities" }

var CommodityKey = &KeyDescriptor[Commodity]{Column: "id", Value: func(m *Commodity) any { return m.ID }}

// MainGroup is the top level of the commodity taxonomy.
type MainGroup struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
	Code string `gorm:"column:code;size:50" json:"code"`
}

func (MainGroup) TableName() string { return "main_groups" }

var MainGroupKey = &KeyDescriptor[MainGroup]{Column: "id", Value: func(m *MainGroup) any { return m.ID }}

// Group is the middle level of the commodity taxonomy.
type Group struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;size:200" json:"name"`
	Code        string `gorm:"column:code;size:50" json:"code"`
	MainGroupID int64  `gorm:"column:main_group_id" json:"mainGroupId"`
}

func (Group) TableName() string { return "groups" }

var GroupKey = &KeyDescriptor[Group]{Column: "id", Value: func(m *Group) any { return m.ID }}

// SubGroup is the leaf level of the commodity taxonomy.
type SubGroup struct {
	ID      int64  `gorm:"column:id;primaryKey" json:"id"`
	Name    string `gorm:"column:name;size:200" json:"name"`
	Code    string `gorm:"column:code;size:50" json:"code"`
	GroupID int64  `gorm:"column:group_id" json:"groupId"`
}

func (SubGroup) TableName() string { return "sub_groups" }

var SubGroupKey = &KeyDescriptor[SubGroup]{Column: "id", Value: func(m *SubGroup) any { return m.ID }}

// Manufacturer is a producer of listed commodities.
type Manufacturer struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
}

func (Manufacturer) TableName() string { return "manufacturers" }

var ManufacturerKey = &KeyDescriptor[Manufacturer]{Column: "id", Value: func(m *Manufacturer) any { return m.ID }}

// Supplier is an entity offering commodities for sale.
type Supplier struct {
	ID         int64  `gorm:"column:id;primaryKey" json:"id"`
	Name       string `gorm:"column:name;size:200" json:"name"`
	NationalID string `gorm:"column:national_id;size:20" json:"nationalId"`
	IsActive   bool   `gorm:"column:is_active" json:"isActive"`
}

func (Supplier) TableName() string { return "suppliers" }

var SupplierKey = &KeyDescriptor[Supplier]{Column: "id", Value: func(m *Supplier) any { return m.ID }}

// MeasurementUnit is a unit commodities are quoted in (kg, ton, barrel).
type MeasurementUnit struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (MeasurementUnit) TableName() string { return "measurement_units" }

var MeasurementUnitKey = &KeyDescriptor[MeasurementUnit]{Column: "id", Value: func(m *MeasurementUnit) any { return m.ID }}

// CurrencyUnit is a settlement currency.
type CurrencyUnit struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (CurrencyUnit) TableName() string { return "currency_units" }

var CurrencyUnitKey = &KeyDescriptor[CurrencyUnit]{Column: "id", Value: func(m *CurrencyUnit) any { return m.ID }}

// ContractType describes the contract form of an offer (cash, credit, salaf).
type ContractType struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (ContractType) TableName() string { return "contract_types" }

var ContractTypeKey = &KeyDescriptor[ContractType]{Column: "id", Value: func(m *ContractType) any { return m.ID }}

// DeliveryPlace is a registered warehouse or delivery location.
type DeliveryPlace struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
}

func (DeliveryPlace) TableName() string { return "delivery_places" }

var DeliveryPlaceKey = &KeyDescriptor[DeliveryPlace]{Column: "id", Value: func(m *DeliveryPlace) any { return m.ID }}

// TradingHall is a trading floor of the exchange.
type TradingHall struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
}

func (TradingHall) TableName() string { return "trading_halls" }

var TradingHallKey = &KeyDescriptor[TradingHall]{Column: "id", Value: func(m *TradingHall) any { return m.ID }}

// BuyMethod describes how an offer can be bought (auction, negotiated).
type BuyMethod struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (BuyMethod) TableName() string { return "buy_methods" }

var BuyMethodKey = &KeyDescriptor[BuyMethod]{Column: "id", Value: func(m *BuyMethod) any { return m.ID }}

// OfferMode describes the offering mode of a listing.
type OfferMode struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (OfferMode) TableName() string { return "offer_modes" }

var OfferModeKey = &KeyDescriptor[OfferMode]{Column: "id", Value: func(m *OfferMode) any { return m.ID }}

// PackagingType describes commodity packaging.
type PackagingType struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (PackagingType) TableName() string { return "packaging_types" }

var PackagingTypeKey = &KeyDescriptor[PackagingType]{Column: "id", Value: func(m *PackagingType) any { return m.ID }}

// SettlementType describes settlement terms (cash, credit).
type SettlementType struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (SettlementType) TableName() string { return "settlement_types" }

var SettlementTypeKey = &KeyDescriptor[SettlementType]{Column: "id", Value: func(m *SettlementType) any { return m.ID }}

// SecurityType describes the security class of an instrument.
type SecurityType struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (SecurityType) TableName() string { return "security_types" }

var SecurityTypeKey = &KeyDescriptor[SecurityType]{Column: "id", Value: func(m *SecurityType) any { return m.ID }}

// OfferType describes the offer class of a listing.
type OfferType struct {
	ID   int64  `gorm:"column:id;primaryKey" json:"id"`
	Name string `gorm:"column:name;size:100" json:"name"`
}

func (OfferType) TableName() string { return "offer_types" }

var OfferTypeKey = &KeyDescriptor[OfferType]{Column: "id", Value: func(m *OfferType) any { return m.ID }}

// Tender is a published purchase tender.
type Tender struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Title       string `gorm:"column:title;size:500" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	StartDate   string `gorm:"column:start_date;size:10" json:"startDate"`
	EndDate     string `gorm:"column:end_date;size:10" json:"endDate"`
}

func (Tender) TableName() string { return "tenders" }

var TenderKey = &KeyDescriptor[Tender]{Column: "id", Value: func(m *Tender) any { return m.ID }}
