package main

import (
	"log"
	"os"
	"time"

	"github.com/gbl08ma/sqalx"
	"github.com/jmoiron/sqlx"

	"github.com/gbl08ma/keybox"
	"github.com/salishsea/ferrytrack/compute"
	"github.com/salishsea/ferrytrack/dataobjects"
)

var (
	rdb              *sqlx.DB
	rootSqalxNode    sqalx.Node
	secrets          *keybox.Keybox
	mainLog          = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	webLog           = log.New(os.Stdout, "web", log.Ldate|log.Ltime)
	lastChange       time.Time
	apiTotalRequests int

	positionHandler *compute.PositionHandler
	tripHandler     *compute.TripHandler

	// GitCommit is provided by govvv at compile-time
	GitCommit = "???"
	// BuildDate is provided by govvv at compile-time
	BuildDate = "???"
)

func main() {
	var err error
	mainLog.Println("Server starting, opening keybox...")
	secrets, err = keybox.Open(SecretsPath)
	if err != nil {
		mainLog.Fatalln(err)
	}
	mainLog.Println("Keybox opened")

	mainLog.Println("Opening database...")
	databaseURI, present := secrets.Get("databaseURI")
	if !present {
		mainLog.Fatalln("Database connection string not present in keybox")
	}
	rdb, err = sqlx.Open("postgres", databaseURI)
	if err != nil {
		mainLog.Fatalln(err)
	}
	defer rdb.Close()

	err = rdb.Ping()
	if err != nil {
		mainLog.Fatalln(err)
	}
	rdb.SetMaxOpenConns(MaxDBconnectionPoolSize)

	rootSqalxNode, err = sqalx.New(rdb)
	if err != nil {
		mainLog.Fatalln(err)
	}

	positionHandler = compute.NewPositionHandler()
	// done like this to ensure rootSqalxNode is not nil at this point
	tripHandler = compute.NewTripHandler(
		&compute.StoreModelSource{Node: rootSqalxNode},
		positionHandler,
		mainLog)

	mainLog.Println("Database opened")

	compute.Initialize(rootSqalxNode, mainLog)

	err = SetUpScrapers(rootSqalxNode)
	if err != nil {
		mainLog.Fatalln(err)
	}
	defer TearDownScrapers()

	terminals, err := dataobjects.GetTerminals(rootSqalxNode)
	if err != nil {
		mainLog.Println(err)
	}
	abbrevs := make([]string, len(terminals))
	for i, terminal := range terminals {
		abbrevs[i] = terminal.Abbrev
	}
	SetUpBulletins(abbrevs)
	defer TearDownBulletins()

	go StatsSender()
	go MaintenanceRunner()
	go APIserver()

	for {
		if DEBUG {
			printOpenTrips(rootSqalxNode)
		}
		time.Sleep(1 * time.Minute)
	}
}

func printOpenTrips(node sqalx.Node) {
	count, err := dataobjects.CountOpenVesselTrips(node)
	if err != nil {
		mainLog.Println(err)
		return
	}
	mainLog.Println(count, "trips currently underway or awaiting departure")
}
