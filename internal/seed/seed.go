package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type City struct {
	Airport string
	Name    string
}

var Cities = []City{
	{Airport: "Tokyo (NRT)", Name: "Tokyo"},
	{Airport: "Osaka (KIX)", Name: "Osaka"},
	{Airport: "Fukuoka (FUK)", Name: "Fukuoka"},
	{Airport: "Sapporo (CTS)", Name: "Sapporo"},
	{Airport: "Okinawa (OKA)", Name: "Okinawa"},
}

type Airline struct {
	Name   string
	Prefix string
}

var Airlines = []Airline{
	{Name: "Japan Airlines", Prefix: "JL"},
	{Name: "ANA", Prefix: "NH"},
	{Name: "Skymark Airlines", Prefix: "BC"},
	{Name: "Peach Aviation", Prefix: "MM"},
	{Name: "Jetstar Japan", Prefix: "GK"},
	{Name: "Air Do", Prefix: "HD"},
}

type route struct {
	minutes   int
	basePrice int64
}

// Routes are symmetric, so only one direction is listed.
var routes = map[[2]string]route{
	{"Tokyo", "Osaka"}:     {90, 45000},
	{"Tokyo", "Fukuoka"}:   {135, 55000},
	{"Tokyo", "Sapporo"}:   {105, 42000},
	{"Tokyo", "Okinawa"}:   {165, 65000},
	{"Osaka", "Fukuoka"}:   {75, 35000},
	{"Osaka", "Sapporo"}:   {120, 48000},
	{"Osaka", "Okinawa"}:   {120, 52000},
	{"Fukuoka", "Sapporo"}: {150, 58000},
	{"Fukuoka", "Okinawa"}: {90, 38000},
	{"Sapporo", "Okinawa"}: {180, 72000},
}

const (
	MinFlightsPerRoute = 15
	MaxFlightsPerRoute = 20
	MinPrice           = 20000
	priceSpread        = 15000
	firstHour          = 6
	lastHour           = 22
)

func lookup(src, dst string) route {
	if r, ok := routes[[2]string{src, dst}]; ok {
		return r
	}
	if r, ok := routes[[2]string{dst, src}]; ok {
		return r
	}
	return route{minutes: 120, basePrice: 50000}
}

type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator whose output depends only on seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate builds the catalog for days consecutive days starting at the UTC
// calendar day of start. Every ordered city pair gets 15 to 20 flights a day,
// spread between 06:00 and 22:59 UTC.
func (g *Generator) Generate(start time.Time, days int) []domain.Flight {
	if days < 1 {
		return nil
	}
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	flights := make([]domain.Flight, 0, days*len(Cities)*(len(Cities)-1)*MaxFlightsPerRoute)

	for day := 0; day < days; day++ {
		date := first.AddDate(0, 0, day)
		counter := 100

		for _, src := range Cities {
			for _, dst := range Cities {
				if src == dst {
					continue
				}
				r := lookup(src.Name, dst.Name)
				n := MinFlightsPerRoute + g.rnd.IntN(MaxFlightsPerRoute-MinFlightsPerRoute+1)

				for i := 0; i < n; i++ {
					airline := Airlines[g.rnd.IntN(len(Airlines))]

					slot := float64(i*(lastHour-firstHour)) / float64(n)
					hour := firstHour + int(slot+g.rnd.Float64()*0.5)
					hour = min(max(hour, firstHour), lastHour)
					dep := date.Add(time.Duration(hour)*time.Hour + time.Duration(g.rnd.IntN(60))*time.Minute)
					arr := dep.Add(time.Duration(r.minutes) * time.Minute)

					price := r.basePrice + int64(g.rnd.IntN(priceSpread)) - priceSpread/2
					price = max(price, MinPrice)

					flights = append(flights, domain.Flight{
						Airline:       airline.Name,
						FlightNumber:  fmt.Sprintf("%s%d", airline.Prefix, counter+day%100),
						DepartureTime: dep,
						ArrivalTime:   arr,
						DepartureDate: date,
						ArrivalDate:   time.Date(arr.Year(), arr.Month(), arr.Day(), 0, 0, 0, 0, time.UTC),
						Source:        src.Airport,
						Destination:   dst.Airport,
						Price:         price,
					})
					counter++
				}
			}
		}
	}
	return flights
}
