package postgres

import "time"

type Service struct {
	RID string `gorm:"column:rid;primaryKey;size:30"`
	UID string `gorm:"column:uid;size:10"`
	SSD string `gorm:"column:ssd;size:10"`
}

func (Service) TableName() string { return "service" }

type ServiceUpdate struct {
	UpdateID   int64     `gorm:"column:update_id;primaryKey;autoIncrement"`
	RID        string    `gorm:"column:rid;size:30;index"`
	Service    Service   `gorm:"foreignKey:RID;references:RID"`
	Timestamp  time.Time `gorm:"column:ts"`
	LateReason string    `gorm:"size:10"`
}

func (ServiceUpdate) TableName() string { return "service_update" }

type Timestamp struct {
	ID      int64  `gorm:"column:ts_id;primaryKey;autoIncrement"`
	Time    string `gorm:"column:ts;size:8"`
	Source  string `gorm:"column:src;size:30"`
	Delayed bool
	Status  string `gorm:"size:30"`

	// ResolvedAt is Time on the service's start date, when both are known.
	ResolvedAt *time.Time `gorm:"column:at"`
}

func (Timestamp) TableName() string { return "timestamp" }

type Platform struct {
	ID         int64  `gorm:"column:plat_id;primaryKey;autoIncrement"`
	Source     string `gorm:"column:src;size:30"`
	Confirmed  bool
	Suppressed bool
	Text       string `gorm:"size:30"`
}

func (Platform) TableName() string { return "platform" }

type Location struct {
	ID       int64  `gorm:"column:loc_id;primaryKey;autoIncrement"`
	UpdateID int64  `gorm:"index"`
	Tiploc   string `gorm:"column:tpl;size:10;index"`
	Type     string `gorm:"size:1"`

	WorkingArrival   string `gorm:"column:wta;size:8"`
	WorkingDeparture string `gorm:"column:wtd;size:8"`
	WorkingPassing   string `gorm:"column:wtp;size:8"`
	PublicArrival    string `gorm:"column:pta;size:5"`
	PublicDeparture  string `gorm:"column:ptd;size:5"`

	ArrivalID   *int64
	Arrival     *Timestamp `gorm:"foreignKey:ArrivalID"`
	DepartureID *int64
	Departure   *Timestamp `gorm:"foreignKey:DepartureID"`
	PassingID   *int64
	Passing     *Timestamp `gorm:"foreignKey:PassingID"`
	PlatformID  *int64
	Platform    *Platform `gorm:"foreignKey:PlatformID"`
}

func (Location) TableName() string { return "location" }

// ScheduleRecord holds one schedule.Record; fields are filled by name.
type ScheduleRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Kind      string `gorm:"size:16;index:idx_schedule_kind_rid"`
	RID       string `gorm:"size:30;index:idx_schedule_kind_rid"`
	UID       string `gorm:"size:10"`
	TrainID   string `gorm:"size:10"`
	SSD       string `gorm:"size:10"`
	TOC       string `gorm:"size:4"`
	Timestamp string `gorm:"column:ts;size:32"`

	Type             string `gorm:"size:1"`
	Tiploc           string `gorm:"column:tpl;size:10"`
	Activity         string `gorm:"column:act;size:12"`
	WorkingArrival   string `gorm:"column:wta;size:8"`
	WorkingDeparture string `gorm:"column:wtd;size:8"`
	WorkingPassing   string `gorm:"column:wtp;size:8"`
	PublicArrival    string `gorm:"column:pta;size:5"`
	PublicDeparture  string `gorm:"column:ptd;size:5"`
	AverageLoading   string `gorm:"size:8"`
	Cancelled        bool
	CancelReason     string `gorm:"size:10"`

	Passenger   *bool
	Deactivated bool
}

func (ScheduleRecord) TableName() string { return "schedule_record" }

// Models lists every table the store migrates.
var Models = []any{
	&Service{},
	&ServiceUpdate{},
	&Timestamp{},
	&Platform{},
	&Location{},
	&ScheduleRecord{},
}
