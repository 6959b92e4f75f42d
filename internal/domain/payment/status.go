package payment

// Status is the numeric transaction status. Values below 1000 are the ones
// reported by PayU; the rest are internal.
type Status int

const (
	StatusNew                 Status = 1
	StatusCanceled            Status = 2
	StatusRejected            Status = 3
	StatusStarted             Status = 4
	StatusWaitingConfirmation Status = 5
	StatusRejectedByBank      Status = 7
	StatusDone                Status = 99
	StatusWrongAmount         Status = 888
	StatusCompanyAccepts      Status = 1005
	StatusInvoiceMade         Status = 1006
	StatusInvoicePaid         Status = 1007

	StatusPackageNew                 Status = 20000
	StatusPackageAcceptedForAssembly Status = 20001
	StatusPackageDelivered           Status = 20002
)

var statusNames = map[Status]string{
	StatusNew:                        "new",
	StatusCanceled:                   "cancelled",
	StatusRejected:                   "rejected",
	StatusStarted:                    "started",
	StatusWaitingConfirmation:        "waiting for confirmation",
	StatusRejectedByBank:             "rejected by bank",
	StatusDone:                       "done",
	StatusWrongAmount:                "wrong amount",
	StatusCompanyAccepts:             "company accepts",
	StatusInvoiceMade:                "invoice made",
	StatusInvoicePaid:                "invoice paid",
	StatusPackageNew:                 "package new",
	StatusPackageAcceptedForAssembly: "package assigned to batch",
	StatusPackageDelivered:           "package delivered",
}

// String returns the human readable status name
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsKnown returns true for statuses listed above
func (s Status) IsKnown() bool {
	_, ok := statusNames[s]
	return ok
}

// IsDone reports whether the entry fee is settled
func (s Status) IsDone() bool {
	switch s {
	case StatusDone, StatusCompanyAccepts, StatusInvoiceMade, StatusInvoicePaid:
		return true
	default:
		return false
	}
}

// IsWaiting reports whether the payment is still in progress
func (s Status) IsWaiting() bool {
	switch s {
	case StatusNew, StatusStarted, StatusWaitingConfirmation:
		return true
	default:
		return false
	}
}

// PayType is the payment channel
type PayType string

const (
	PayTypeCompany      PayType = "fc"
	PayTypeFreeEntry    PayType = "fe"
	PayTypeAmbassador   PayType = "am"
	PayTypeInvoice      PayType = "fa"
	PayTypeMBank        PayType = "mp"
	PayTypeKB           PayType = "kb"
	PayTypeRaiffeisen   PayType = "rf"
	PayTypeGEMoney      PayType = "pg"
	PayTypeSberbank     PayType = "pv"
	PayTypeFio          PayType = "pf"
	PayTypeCSOB         PayType = "cs"
	PayTypeMoneta       PayType = "mo"
	PayTypeUniCredit    PayType = "uc"
	PayTypeTest         PayType = "t"
	PayTypeCard         PayType = "c"
	PayTypeBankTransfer PayType = "bt"
)

// IsOnline returns true for channels processed by the payment gateway
func (p PayType) IsOnline() bool {
	switch p {
	case PayTypeCompany, PayTypeFreeEntry, PayTypeAmbassador, PayTypeInvoice, "":
		return false
	default:
		return true
	}
}
