package timewindow

// Choice is the operator's date and time-of-day selection.
type Choice struct {
	// Date is the chosen day; zero when unset.
	Date Date

	// Hour is "00".."23".
	Hour string

	// Minute is one of "00", "15", "30", "45".
	Minute string
}

// Time renders the time of day as HH:MM.
func (c Choice) Time() string {
	return c.Hour + ":" + c.Minute
}

// Picker holds a Choice and keeps it inside the legal window across edits.
// It is not safe for concurrent use.
type Picker struct {
	resolver *Resolver
	choice   Choice
}

// NewPicker starts with no date and the current quarter hour.
func NewPicker(r *Resolver) *Picker {
	now := r.Now()
	return &Picker{
		resolver: r,
		choice: Choice{
			Hour:   formatTwoDigits(now.Hour()),
			Minute: FloorMinute(now.Minute()),
		},
	}
}

// Choice returns a copy of the current selection.
func (p *Picker) Choice() Choice {
	return p.choice
}

// AvailableHours returns the hours selectable for the held date.
func (p *Picker) AvailableHours() []string {
	return p.resolver.AvailableHours(p.choice.Date)
}

// AvailableMinutes returns the minutes selectable for the held date and hour.
func (p *Picker) AvailableMinutes() []string {
	return p.resolver.AvailableMinutes(p.choice.Date, p.choice.Hour)
}

// SetDate changes the day. Days outside [MinDate, today] are rejected and
// leave the choice untouched. Moving to today pulls a future hour back to the
// current hour with minute "00", and a future minute in the current hour back
// to the latest step.
func (p *Picker) SetDate(date Date) error {
	if err := p.resolver.CheckDate(date); err != nil {
		return err
	}

	now := p.resolver.Now()
	p.choice.Date = date
	if date != DateOf(now) {
		return nil
	}

	h, err := parseHour(p.choice.Hour)
	if err != nil || h > now.Hour() {
		p.choice.Hour = formatTwoDigits(now.Hour())
		p.choice.Minute = "00"
		return nil
	}
	p.clampMinute()
	return nil
}

// ClearDate unsets the day.
func (p *Picker) ClearDate() {
	p.choice.Date = Date{}
}

// SetHour changes the hour. Hours not available for the held date are
// rejected. Landing on the current hour of today pulls a future minute back
// to the latest step.
func (p *Picker) SetHour(hour string) error {
	if _, err := parseHour(hour); err != nil {
		return err
	}
	if !contains(p.resolver.AvailableHours(p.choice.Date), hour) {
		return ErrHourNotAllowed
	}

	p.choice.Hour = hour
	p.clampMinute()
	return nil
}

// SetMinute changes the minute. Minutes not available for the held date and
// hour are rejected.
func (p *Picker) SetMinute(minute string) error {
	if _, err := parseMinute(minute); err != nil {
		return err
	}
	if !contains(p.resolver.AvailableMinutes(p.choice.Date, p.choice.Hour), minute) {
		return ErrMinuteNotAllowed
	}

	p.choice.Minute = minute
	return nil
}

// clampMinute drops the held minute to the latest legal step when it is no
// longer available.
func (p *Picker) clampMinute() {
	allowed := p.resolver.AvailableMinutes(p.choice.Date, p.choice.Hour)
	if contains(allowed, p.choice.Minute) {
		return
	}
	p.choice.Minute = allowed[len(allowed)-1]
}
