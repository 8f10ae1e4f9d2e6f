package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/exchange"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/persistence"
	"github.com/rkarimabadi/IME.SpotDataApi-sub000/internal/infrastructure/persistence/models"
)

// Endpoint paths of the exchange API, one per sync entity
const (
	pathBroker          = "/Broker"
	pathCommodity       = "/Commodity"
	pathMainGroup       = "/MainGroup"
	pathGroup           = "/Group"
	pathSubGroup        = "/SubGroup"
	pathManufacturer    = "/Manufacturer"
	pathSupplier        = "/Supplier"
	pathMeasurementUnit = "/MeasurementUnit"
	pathCurrencyUnit    = "/CurrencyUnit"
	pathContractType    = "/ContractType"
	pathDeliveryPlace   = "/DeliveryPlace"
	pathTradingHall     = "/TradingHall"
	pathBuyMethod       = "/BuyMethod"
	pathOfferMode       = "/OfferMode"
	pathPackagingType   = "/PackagingType"
	pathSettlementType  = "/SettlementType"
	pathSecurityType    = "/SecurityType"
	pathOfferType       = "/OfferType"
	pathTender          = "/Tender"
	pathOffer           = "/Offer"
	pathTradeReport     = "/TradeReport"
	pathNews            = "/News"
	pathSpot            = "/SpotNotification"
)

// BuildSteps assembles the ordered sync step table: all reference entities
// first so operational rows never arrive ahead of the master data they point
// at, then offers, trade reports and the two notification feeds.
func BuildSteps(exchangeCfg exchange.Config, cfg Config, tokens exchange.TokenSource, logger *zap.Logger) []SyncStep {
	return []SyncStep{
		referenceStep[models.Broker]("Broker", pathBroker, exchangeCfg, tokens, models.BrokerKey, logger),
		referenceStep[models.Commodity]("Commodity", pathCommodity, exchangeCfg, tokens, models.CommodityKey, logger),
		referenceStep[models.MainGroup]("MainGroup", pathMainGroup, exchangeCfg, tokens, models.MainGroupKey, logger),
		referenceStep[models.Group]("Group", pathGroup, exchangeCfg, tokens, models.GroupKey, logger),
		referenceStep[models.SubGroup]("SubGroup", pathSubGroup, exchangeCfg, tokens, models.SubGroupKey, logger),
		referenceStep[models.Manufacturer]("Manufacturer", pathManufacturer, exchangeCfg, tokens, models.ManufacturerKey, logger),
		referenceStep[models.Supplier]("Supplier", pathSupplier, exchangeCfg, tokens, models.SupplierKey, logger),
		referenceStep[models.MeasurementUnit]("MeasurementUnit", pathMeasurementUnit, exchangeCfg, tokens, models.MeasurementUnitKey, logger),
		referenceStep[models.CurrencyUnit]("CurrencyUnit", pathCurrencyUnit, exchangeCfg, tokens, models.CurrencyUnitKey, logger),
		referenceStep[models.ContractType]("ContractType", pathContractType, exchangeCfg, tokens, models.ContractTypeKey, logger),
		referenceStep[models.DeliveryPlace]("DeliveryPlace", pathDeliveryPlace, exchangeCfg, tokens, models.DeliveryPlaceKey, logger),
		referenceStep[models.TradingHall]("TradingHall", pathTradingHall, exchangeCfg, tokens, models.TradingHallKey, logger),
		referenceStep[models.BuyMethod]("BuyMethod", pathBuyMethod, exchangeCfg, tokens, models.BuyMethodKey, logger),
		referenceStep[models.OfferMode]("OfferMode", pathOfferMode, exchangeCfg, tokens, models.OfferModeKey, logger),
		referenceStep[models.PackagingType]("PackagingType", pathPackagingType, exchangeCfg, tokens, models.PackagingTypeKey, logger),
		referenceStep[models.SettlementType]("SettlementType", pathSettlementType, exchangeCfg, tokens, models.SettlementTypeKey, logger),
		referenceStep[models.SecurityType]("SecurityType", pathSecurityType, exchangeCfg, tokens, models.SecurityTypeKey, logger),
		referenceStep[models.OfferType]("OfferType", pathOfferType, exchangeCfg, tokens, models.OfferTypeKey, logger),
		referenceStep[models.Tender]("Tender", pathTender, exchangeCfg, tokens, models.TenderKey, logger),

		operationalStep[models.Offer]("Offer", pathOffer, exchangeCfg, tokens, models.OfferKey, cfg.OfferLookback, logger),
		operationalStep[models.TradeReport]("TradeReport", pathTradeReport, exchangeCfg, tokens, nil, cfg.TradeReportLookback, logger),

		notificationStep[models.NewsNotification]("NewsNotification", pathNews, exchangeCfg, models.NewsNotificationKey, cfg.NotificationLookback, logger),
		notificationStep[models.SpotNotification]("SpotNotification", pathSpot, exchangeCfg, models.SpotNotificationKey, cfg.NotificationLookback, logger),
	}
}

// referenceStep syncs one reference entity: full pull, upsert by key
func referenceStep[T any](
	entity, path string,
	cfg exchange.Config,
	tokens exchange.TokenSource,
	key *models.KeyDescriptor[T],
	logger *zap.Logger,
) SyncStep {
	client := exchange.NewReferenceClient[T](cfg, path, tokens, logger)
	return SyncStep{
		Entity: entity,
		Run: func(ctx context.Context, db *gorm.DB) (int, error) {
			items, err := client.RetrieveAll(ctx, false)
			if err != nil {
				return 0, err
			}
			if err := persistence.NewSyncRepository[T](db, key).Upsert(ctx, items); err != nil {
				return 0, err
			}
			return len(items), nil
		},
	}
}

// operationalStep syncs one operational entity over a sliding day window
// ending today. A nil key makes the store append-only.
func operationalStep[T any](
	entity, path string,
	cfg exchange.Config,
	tokens exchange.TokenSource,
	key *models.KeyDescriptor[T],
	lookback time.Duration,
	logger *zap.Logger,
) SyncStep {
	client := exchange.NewOperationalClient[T](cfg, path, tokens, logger)
	return SyncStep{
		Entity: entity,
		Run: func(ctx context.Context, db *gorm.DB) (int, error) {
			to := time.Now()
			items, err := client.RetrieveForRange(ctx, to.Add(-lookback), to)
			if err != nil {
				return 0, err
			}
			if err := persistence.NewSyncRepository[T](db, key).Upsert(ctx, items); err != nil {
				return 0, err
			}
			return len(items), nil
		},
	}
}

// notificationStep syncs one notification feed over a sliding day window
func notificationStep[T any](
	entity, path string,
	cfg exchange.Config,
	key *models.KeyDescriptor[T],
	lookback time.Duration,
	logger *zap.Logger,
) SyncStep {
	client := exchange.NewNotificationClient[T](cfg, path, logger)
	return SyncStep{
		Entity: entity,
		Run: func(ctx context.Context, db *gorm.DB) (int, error) {
			to := time.Now()
			items, err := client.RetrieveForRange(ctx, to.Add(-lookback), to)
			if err != nil {
				return 0, err
			}
			if err := persistence.NewSyncRepository[T](db, key).Upsert(ctx, items); err != nil {
				return 0, err
			}
			return len(items), nil
		},
	}
}
