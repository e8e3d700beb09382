package asset

import "time"

type Status string

const (
	StatusInService     Status = "In Service"
	StatusInMaintenance Status = "In Maintenance"
	StatusReplaced      Status = "Replaced"
	StatusScrap         Status = "Scrap"
)

var AllStatuses = []Status{StatusInService, StatusInMaintenance, StatusReplaced, StatusScrap}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Asset struct {
	ID              int64     `json:"id" validate:"required,gt=0"`
	SerialNumber    string    `json:"serialNumber" validate:"required"`
	Status          Status    `json:"status" validate:"required,oneof='In Service' 'In Maintenance' Replaced Scrap"`
	AssignedTo      int64     `json:"assignedTo,omitempty"`
	Location        string    `json:"location,omitempty"`
	AcquisitionDate time.Time `json:"acquisitionDate"`
	Approved        bool      `json:"approved"`
}
