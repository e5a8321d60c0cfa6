package models

// Employee is a staff member whose time can be booked.
type Employee struct {
	ID             string `bson:"id" json:"id"`
	CompanyID      string `bson:"companyId" json:"companyId"`
	EmployeeName   string `bson:"employeeName" json:"employeeName"`
	StartTime      string `bson:"startTime" json:"startTime"` // HH:MM
	EndTime        string `bson:"endTime" json:"endTime"`     // HH:MM
	LunchTimeStart string `bson:"lunchTimeStart,omitempty" json:"lunchTimeStart,omitempty"`
	LunchTimeEnd   string `bson:"lunchTimeEnd,omitempty" json:"lunchTimeEnd,omitempty"`
	Duration       string `bson:"duration,omitempty" json:"duration,omitempty"` // free text, e.g. "60 min"
}

// Company owns employees and bookings.
type Company struct {
	ID          string `bson:"id" json:"id"`
	CompanyName string `bson:"companyName" json:"companyName"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
}

// Customer is the booking party addressed by reminders.
type Customer struct {
	ID          string `bson:"id" json:"id"`
	Username    string `bson:"username" json:"username"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	FCMToken    string `bson:"fcmToken,omitempty" json:"-"`
}
