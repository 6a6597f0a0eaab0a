package emit

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
	"golang.org/x/exp/slices"
)

// Subject is what a filter expression is evaluated against.
type Subject struct {
	Stream    string
	RID       string
	UID       string
	Tiplocs   []string
	Passenger bool
}

// Filter decides which records are relevant. A record is relevant when it
// calls at one of the configured stations (or no station is configured)
// and the optional expression holds.
type Filter struct {
	Stations []string

	program *vm.Program
}

// NewFilter compiles the optional expression, for example
// `Stream == "locations" && "PADTON" in Tiplocs`.
func NewFilter(stations []string, expression string) (*Filter, error) {
	filter := &Filter{Stations: stations}

	if expression != "" {
		program, err := expr.Compile(expression, expr.Env(Subject{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile filter expression: %w", err)
		}

		filter.program = program
	}

	return filter, nil
}

// Train reports whether a schedule train is relevant.
func (f *Filter) Train(train schedule.Train) bool {
	identity := train.ID()

	passenger := true
	if typed, ok := train.(*schedule.TypedTrain); ok {
		passenger = typed.Passenger
	}

	return f.relevant(Subject{
		Stream:    string(train.Variant()),
		RID:       identity.RID,
		UID:       identity.UID,
		Tiplocs:   train.Tiplocs(),
		Passenger: passenger,
	})
}

// Movement reports whether a service update is relevant.
func (f *Filter) Movement(update movement.Update) bool {
	return f.relevant(Subject{
		Stream:    StreamMovement,
		RID:       update.Service.RID,
		UID:       update.Service.UID,
		Tiplocs:   update.Tiplocs(),
		Passenger: true,
	})
}

func (f *Filter) relevant(subject Subject) bool {
	if f == nil {
		return true
	}

	if len(f.Stations) > 0 && !slices.ContainsFunc(subject.Tiplocs, func(tiploc string) bool {
		return slices.Contains(f.Stations, tiploc)
	}) {
		return false
	}

	if f.program == nil {
		return true
	}

	output, err := expr.Run(f.program, subject)
	if err != nil {
		log.Error().Err(err).Str("rid", subject.RID).Msg("Failed to evaluate filter expression")
		return false
	}

	return output.(bool)
}
