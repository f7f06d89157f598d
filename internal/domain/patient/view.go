package patient

// View is the flattened patient read model: demographic fields plus the
// patient's most recent visit, when one exists.
type View struct {
	PatientID   string `json:"patient_id"`
	Surname     string `json:"surname"`
	Name        string `json:"name"`
	FatherName  string `json:"father_name,omitempty"`
	Age         int    `json:"age"`
	BloodGroup  string `json:"blood_group,omitempty"`
	Gender      string `json:"gender,omitempty"`
	NationalID  string `json:"national_id"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	Photo       string `json:"photo,omitempty"`
	TotalVisits int    `json:"total_visits"`

	// Overlay from the most recent visit; absent when the patient has none.
	RegNo       string `json:"reg_no,omitempty"`
	OpNo        string `json:"op_no,omitempty"`
	BP          string `json:"bp,omitempty"`
	Weight      string `json:"weight,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Symptoms    string `json:"symptoms,omitempty"`
	Complaints  string `json:"complaints,omitempty"`
	Status      string `json:"status,omitempty"`
	LastVisit   string `json:"last_visit,omitempty"`
	VisitDate   string `json:"visit_date,omitempty"`
	VisitTime   string `json:"visit_time,omitempty"`
}

const (
	viewDateFormat = "2006-01-02"
	viewTimeFormat = "15:04 PM"
)

// ComposeView builds the flattened read model. latest may be nil, in which
// case the overlay fields stay empty.
func ComposeView(p *Patient, latest *VisitSummary) *View {
	v := &View{
		PatientID:   p.PatientID,
		Surname:     p.Surname,
		Name:        p.Name,
		FatherName:  p.FatherName,
		Age:         p.Age,
		BloodGroup:  p.BloodGroup,
		Gender:      p.Gender,
		NationalID:  p.NationalID,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		TotalVisits: p.TotalVisits,
	}

	if len(p.Photo) > 0 {
		v.Photo = EncodePhoto(p.Photo)
	}

	if latest != nil {
		v.RegNo = latest.RegNo
		v.OpNo = latest.OpNo
		v.BP = latest.BP
		v.Weight = latest.Weight
		v.Temperature = latest.Temperature
		v.Symptoms = latest.Symptoms
		v.Complaints = latest.Complaint
		v.Status = latest.Status
		if !latest.VisitDate.IsZero() {
			v.LastVisit = latest.VisitDate.Format(viewDateFormat)
			v.VisitDate = latest.VisitDate.Format(viewDateFormat)
			v.VisitTime = latest.VisitDate.Format(viewTimeFormat)
		}
	}

	return v
}
