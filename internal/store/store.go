package store

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/neocertify/neocertify/internal/store/model"
)

type Store interface {
	Organization() Organization
	Product() Product
	Lot() Lot
	Code() Code
	Patient() Patient
	Shipment() Shipment
	Treatment() Treatment
	Disposal() Disposal
	History() History
	Notification() Notification
	InitialMigration() error
	Close() error
}

type DataStore struct {
	organization Organization
	product      Product
	lot          Lot
	code         Code
	patient      Patient
	shipment     Shipment
	treatment    Treatment
	disposal     Disposal
	history      History
	notification Notification

	db *gorm.DB
}

func NewStore(db *gorm.DB, log logrus.FieldLogger) Store {
	return &DataStore{
		organization: NewOrganization(db, log),
		product:      NewProduct(db, log),
		lot:          NewLot(db, log),
		code:         NewCode(db, log),
		patient:      NewPatient(db, log),
		shipment:     NewShipment(db, log),
		treatment:    NewTreatment(db, log),
		disposal:     NewDisposal(db, log),
		history:      NewHistory(db, log),
		notification: NewNotification(db, log),
		db:           db,
	}
}

func (s *DataStore) Organization() Organization {
	return s.organization
}

func (s *DataStore) Product() Product {
	return s.product
}

func (s *DataStore) Lot() Lot {
	return s.lot
}

func (s *DataStore) Code() Code {
	return s.code
}

func (s *DataStore) Patient() Patient {
	return s.patient
}

func (s *DataStore) Shipment() Shipment {
	return s.shipment
}

func (s *DataStore) Treatment() Treatment {
	return s.treatment
}

func (s *DataStore) Disposal() Disposal {
	return s.disposal
}

func (s *DataStore) History() History {
	return s.history
}

func (s *DataStore) Notification() Notification {
	return s.notification
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Organization{},
		&model.Product{},
		&model.Lot{},
		&model.ManufacturerSettings{},
		&model.Patient{},
		&model.HospitalKnownPatient{},
		&model.VirtualCode{},
		&model.ShipmentBatch{},
		&model.ShipmentDetail{},
		&model.TreatmentRecord{},
		&model.TreatmentDetail{},
		&model.DisposalRecord{},
		&model.DisposalDetail{},
		&model.History{},
		&model.NotificationMessage{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
