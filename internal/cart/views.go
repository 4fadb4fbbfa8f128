package cart

import "github.com/shopspring/decimal"

// Row is the view descriptor for one rendered cart line. The quantity
// stepper and remove action call back into the store with the row's
// ProductID.
type Row struct {
	ProductID string
	Name      string
	Image     string
	UnitPrice string
	Quantity  int
}

// ViewState is everything a mounted cart view needs to draw itself: the
// badge count, the rows, and the display total (2 fraction digits). Empty
// carts render a fixed empty-state message instead of rows.
type ViewState struct {
	Count int
	Rows  []Row
	Total string
	Empty bool
}

// View is any display region the cart renders into; it is re-rendered on
// every mutation.
type View interface {
	Render(state ViewState)
}

func (s *Store) viewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := ViewState{
		Count: 0,
		Empty: len(s.items) == 0,
	}

	total := decimal.Zero
	for _, item := range s.items {
		state.Count += item.Quantity
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		state.Rows = append(state.Rows, Row{
			ProductID: item.ID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.Price.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	state.Total = total.StringFixed(2)
	return state
}
