package factory_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/boothrent/factory"
	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/schedule"
)

var today = generic.NewDate(2025, time.November, 12)

func TestParseSchedule_Families(t *testing.T) {
	f := factory.NewScheduleFactory()

	tests := []struct {
		name string
		json string
		want schedule.Rule
	}{
		{
			name: "weekly",
			json: `{"frequency":"weekly","enabled":true,"days":["monday","Wednesday","FRIDAY"]}`,
			want: schedule.Weekly{Days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		},
		{
			name: "biweekly",
			json: `{"frequency":"biweekly","enabled":true,"day":"friday","startDate":"2025-11-11"}`,
			want: schedule.Biweekly{Day: time.Friday, StartDate: generic.NewDate(2025, time.November, 11)},
		},
		{
			name: "monthly specific with string day",
			json: `{"frequency":"monthly","enabled":true,"option":"specific","dayOfMonth":"21"}`,
			want: schedule.MonthlyOnDay{DayOfMonth: 21},
		},
		{
			name: "monthly specific with numeric day",
			json: `{"frequency":"monthly","enabled":true,"option":"specific","dayOfMonth":31}`,
			want: schedule.MonthlyOnDay{DayOfMonth: 31},
		},
		{
			name: "monthly weekday",
			json: `{"frequency":"monthly","enabled":true,"option":"weekday","position":"last","weekday":"friday"}`,
			want: schedule.MonthlyOnWeekday{Position: schedule.Last, Weekday: time.Friday},
		},
		{
			name: "custom with string interval",
			json: `{"frequency":"custom","enabled":true,"interval":"3","unit":"weeks","startDate":"2025-11-11"}`,
			want: schedule.Custom{Interval: 3, Unit: schedule.UnitWeeks, StartDate: generic.NewDate(2025, time.November, 11)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := f.ParseSchedule([]byte(tt.json))
			require.NoError(t, err)
			assert.True(t, cfg.Enabled)
			assert.Equal(t, tt.want, cfg.Rule)
		})
	}
}

func TestParseSchedule_LenientFieldsReachValidator(t *testing.T) {
	// GIVEN: Unparseable numbers and unknown names
	// THEN: Parsing succeeds and Validate reports every problem
	f := factory.NewScheduleFactory()

	tests := []struct {
		name string
		json string
		want []string
	}{
		{"day of month text", `{"frequency":"monthly","option":"specific","dayOfMonth":"abc"}`, []string{schedule.MsgDayOfMonth}},
		{"day of month missing", `{"frequency":"monthly","option":"specific"}`, []string{schedule.MsgDayOfMonth}},
		{"interval zero", `{"frequency":"custom","interval":0,"unit":"days","startDate":"2025-11-20"}`, []string{schedule.MsgInterval}},
		{"interval text", `{"frequency":"custom","interval":"x","unit":"days","startDate":"2025-11-20"}`, []string{schedule.MsgInterval}},
		{"unknown unit and no start", `{"frequency":"custom","interval":2,"unit":"fortnights"}`, []string{schedule.MsgInvalidUnit, schedule.MsgCustomStartDate}},
		{"unknown weekday", `{"frequency":"weekly","days":["funday"]}`, []string{schedule.MsgInvalidWeekday, schedule.MsgSelectDay}},
		{"no days", `{"frequency":"weekly","days":[]}`, []string{schedule.MsgSelectDay}},
		{"unknown position", `{"frequency":"monthly","option":"weekday","position":"fifth","weekday":"monday"}`, []string{schedule.MsgInvalidPosition}},
		{"biweekly past start", `{"frequency":"biweekly","day":"monday","startDate":"2025-01-06"}`, []string{schedule.MsgStartDateInPast}},
		{"interval above bound", `{"frequency":"custom","interval":1001,"unit":"weeks","startDate":"2025-11-20"}`, []string{schedule.MsgIntervalTooLarge}},
		{"interval beyond int range", `{"frequency":"custom","interval":"1152921504606846976","unit":"weeks","startDate":"2025-11-20"}`, []string{schedule.MsgIntervalTooLarge}},
		{"negative interval", `{"frequency":"custom","interval":"-3","unit":"weeks","startDate":"2025-11-20"}`, []string{schedule.MsgInterval}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := f.ParseSchedule([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, schedule.Validate(cfg, today))
		})
	}
}

func TestFlexInt_LeadingInteger(t *testing.T) {
	tests := []struct {
		raw  string
		want factory.FlexInt
	}{
		{`21`, 21},
		{`"21"`, 21},
		{`" 7 "`, 7},
		{`2.0`, 2},
		{`2.9`, 2},
		{`"21.5"`, 21},
		{`"3 weeks"`, 3},
		{`"+4"`, 4},
		{`"-2"`, -2},
		{`"abc"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`true`, 0},
		{`1e3`, 1000},
		{`1e30`, math.MaxInt32},
		{`"99999999999999999999"`, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n factory.FlexInt
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestParseSchedule_FractionalFormValues(t *testing.T) {
	f := factory.NewScheduleFactory()

	cfg, err := f.ParseSchedule([]byte(`{"frequency":"monthly","option":"specific","dayOfMonth":"21.5"}`))
	require.NoError(t, err)
	assert.Equal(t, schedule.MonthlyOnDay{DayOfMonth: 21}, cfg.Rule)

	cfg, err = f.ParseSchedule([]byte(`{"frequency":"custom","interval":2.0,"unit":"weeks","startDate":"2025-11-20"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Rule.(schedule.Custom).Interval)
	assert.Empty(t, schedule.Validate(cfg, today))
}

func TestParseSchedule_Rejects(t *testing.T) {
	f := factory.NewScheduleFactory()

	tests := []struct {
		name string
		json string
		msg  string
	}{
		{"unknown frequency", `{"frequency":"yearly"}`, schedule.MsgUnsupportedFrequency},
		{"missing frequency", `{"enabled":true}`, schedule.MsgUnsupportedFrequency},
		{"unknown monthly option", `{"frequency":"monthly","option":"lunar"}`, factory.MsgInvalidMonthlyOption},
		{"malformed date", `{"frequency":"custom","interval":1,"unit":"days","startDate":"11/11/2025"}`, factory.MsgInvalidStartDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseSchedule([]byte(tt.json))
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tt.msg}, verr.Problems)
		})
	}

	_, err := f.ParseSchedule([]byte(`{"frequency":`))
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
	assert.NotErrorIs(t, err, generic.ErrInvalidSchedule)
}

func TestParseSchedule_EmptyOptionMeansSpecific(t *testing.T) {
	cfg, err := factory.NewScheduleFactory().ParseSchedule([]byte(`{"frequency":"monthly","dayOfMonth":5}`))
	require.NoError(t, err)
	assert.Equal(t, schedule.MonthlyOnDay{DayOfMonth: 5}, cfg.Rule)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewScheduleFactory()
	configs := []schedule.Config{
		{Enabled: true, Rule: schedule.Weekly{Days: []time.Weekday{time.Tuesday, time.Saturday}}},
		{Enabled: false, Rule: schedule.Biweekly{Day: time.Friday, StartDate: generic.NewDate(2025, time.November, 11)}},
		{Enabled: true, Rule: schedule.MonthlyOnDay{DayOfMonth: 15}},
		{Enabled: true, Rule: schedule.MonthlyOnWeekday{Position: schedule.Second, Weekday: time.Wednesday}},
		{Enabled: true, Rule: schedule.Custom{Interval: 2, Unit: schedule.UnitMonths, StartDate: generic.NewDate(2026, time.January, 31)}},
	}

	for _, cfg := range configs {
		data, err := f.Marshal(cfg)
		require.NoError(t, err)

		back, err := f.ParseSchedule(data)
		require.NoError(t, err)
		assert.Equal(t, cfg, back, string(data))
	}
}

func TestToJSON_WireNames(t *testing.T) {
	sj := factory.NewScheduleFactory().ToJSON(schedule.Config{
		Enabled: true,
		Rule:    schedule.MonthlyOnWeekday{Position: schedule.Last, Weekday: time.Friday},
	})

	data, err := json.Marshal(sj)
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"monthly","enabled":true,"option":"weekday","position":"last","weekday":"friday"}`, string(data))
}
