// Package scenarios_test runs the six literal, executable scenarios from
// spec §8 end to end through the service registry, grounded in
// jkilzi-assisted-migration-agent's Describe/It ginkgo style.
package scenarios_test

import (
	"context"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/you/trainctl/internal/carordersvc"
	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/registry"
	"github.com/you/trainctl/internal/store"
	"github.com/you/trainctl/internal/store/memstore"
	"github.com/you/trainctl/internal/trainsvc"
)

var _ = Describe("First boot", func() {
	It("creates the singleton session at session 1 and reuses it", func() {
		ctx := context.Background()
		reg := registry.New(memstore.New())

		sess, err := reg.Sessions().GetCurrentSession(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.CurrentSessionNumber).To(Equal(1))
		Expect(sess.SessionDate.IsZero()).To(BeFalse())
		Expect(sess.Description).To(Equal(""))
		Expect(sess.PreviousSessionSnapshot).To(BeNil())

		again, err := reg.Sessions().GetCurrentSession(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.ID).To(Equal(sess.ID))
	})
})

var _ = Describe("Advance then rollback", func() {
	It("increments then restores car counters, deletes then restores Completed trains, and unwinds in-flight cars", func() {
		ctx := context.Background()
		s := memstore.New()
		reg := registry.New(s)

		_, err := reg.Sessions().GetCurrentSession(ctx)
		Expect(err).NotTo(HaveOccurred())

		carRec, err := s.Create(ctx, store.Cars, store.Record{
			"reportingMarks": "ATSF", "reportingNumber": "1", "carType": "XM",
			"currentIndustry": "A", "isInService": true, "sessionsAtCurrentLocation": 2,
		})
		Expect(err).NotTo(HaveOccurred())
		carAID := carRec["id"].(string)

		carXRec, err := s.Create(ctx, store.Cars, store.Record{
			"reportingMarks": "ATSF", "reportingNumber": "2", "carType": "XM",
			"currentIndustry": "B", "isInService": true, "sessionsAtCurrentLocation": 1,
		})
		Expect(err).NotTo(HaveOccurred())
		carXID := carXRec["id"].(string)

		t1Rec, err := s.Create(ctx, store.Trains, store.Record{
			"name": "T1", "routeId": "r", "sessionNumber": 1, "status": "Completed",
			"locomotiveIds": []string{"l"}, "maxCapacity": 5, "assignedCarIds": []string{},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Create(ctx, store.Trains, store.Record{
			"name": "T2", "routeId": "r", "sessionNumber": 1, "status": "In Progress",
			"locomotiveIds": []string{"l2"}, "maxCapacity": 5, "assignedCarIds": []string{carXID},
		})
		Expect(err).NotTo(HaveOccurred())

		sess, stats, err := reg.Sessions().AdvanceSession(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.CurrentSessionNumber).To(Equal(2))
		Expect(stats.TrainsDeleted).To(Equal(1))

		carAAfter, err := s.FindByID(ctx, store.Cars, carAID)
		Expect(err).NotTo(HaveOccurred())
		Expect(carAAfter["sessionsAtCurrentLocation"]).To(BeNumerically("==", 3))

		t1After, err := s.FindByID(ctx, store.Trains, t1Rec["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(t1After).To(BeNil())

		carXAfter, err := s.FindByID(ctx, store.Cars, carXID)
		Expect(err).NotTo(HaveOccurred())
		Expect(carXAfter["currentIndustry"]).To(Equal("B"))
		Expect(carXAfter["sessionsAtCurrentLocation"]).To(BeNumerically("==", 0))

		rolledBack, rstats, err := reg.Sessions().RollbackSession(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(rolledBack.CurrentSessionNumber).To(Equal(1))
		Expect(rolledBack.PreviousSessionSnapshot).To(BeNil())
		Expect(rstats.TrainsRestored).To(Equal(2))

		carAFinal, err := s.FindByID(ctx, store.Cars, carAID)
		Expect(err).NotTo(HaveOccurred())
		Expect(carAFinal["sessionsAtCurrentLocation"]).To(BeNumerically("==", 2))

		t1Final, err := s.FindByID(ctx, store.Trains, t1Rec["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(t1Final).NotTo(BeNil())

		carXFinal, err := s.FindByID(ctx, store.Cars, carXID)
		Expect(err).NotTo(HaveOccurred())
		Expect(carXFinal["sessionsAtCurrentLocation"]).To(BeNumerically("==", 1))
	})
})

var _ = Describe("Duplicate order suppression", func() {
	It("suppresses regeneration unless forced", func() {
		ctx := context.Background()
		s := memstore.New()
		reg := registry.New(s)

		stRec, err := s.Create(ctx, store.Stations, store.Record{"name": "Junction"})
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Create(ctx, store.Industries, store.Record{
			"name": "I", "stationId": stRec["id"], "isYard": false,
			"carDemandConfig": []map[string]any{{
				"goodsId": "freight", "direction": "outbound",
				"compatibleCarTypes": []string{"boxcar"}, "carsPerSession": 2, "frequency": 1,
			}},
		})
		Expect(err).NotTo(HaveOccurred())

		sessionNumber := 1
		stats, err := reg.CarOrders().GenerateOrders(ctx, carordersvc.GenerateInput{SessionNumber: &sessionNumber})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.OrdersGenerated).To(Equal(2))

		stats, err = reg.CarOrders().GenerateOrders(ctx, carordersvc.GenerateInput{SessionNumber: &sessionNumber})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.OrdersGenerated).To(Equal(0))

		stats, err = reg.CarOrders().GenerateOrders(ctx, carordersvc.GenerateInput{SessionNumber: &sessionNumber, Force: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.OrdersGenerated).To(Equal(2))

		all, err := reg.CarOrders().GetOrdersWithFilters(ctx, carordersvc.Filters{})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(4))
	})
})

var _ = Describe("Switch-list capacity bound", func() {
	It("caps assignment at maxCapacity and transitions exactly that many orders", func() {
		ctx := context.Background()
		s := memstore.New()
		reg := registry.New(s)

		originSt, err := s.Create(ctx, store.Stations, store.Record{"name": "Origin"})
		Expect(err).NotTo(HaveOccurred())
		termSt, err := s.Create(ctx, store.Stations, store.Record{"name": "Term"})
		Expect(err).NotTo(HaveOccurred())
		midSt, err := s.Create(ctx, store.Stations, store.Record{"name": "S1"})
		Expect(err).NotTo(HaveOccurred())

		y1, err := s.Create(ctx, store.Industries, store.Record{"name": "Y1", "stationId": originSt["id"], "isYard": true})
		Expect(err).NotTo(HaveOccurred())
		y2, err := s.Create(ctx, store.Industries, store.Record{"name": "Y2", "stationId": termSt["id"], "isYard": true})
		Expect(err).NotTo(HaveOccurred())
		m, err := s.Create(ctx, store.Industries, store.Record{"name": "M", "stationId": midSt["id"], "isYard": false})
		Expect(err).NotTo(HaveOccurred())

		route, err := s.Create(ctx, store.Routes, store.Record{
			"name": "R", "originYard": y1["id"], "terminationYard": y2["id"],
			"stationSequence": []string{midSt["id"].(string)},
		})
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 10; i++ {
			_, err := s.Create(ctx, store.CarOrders, store.Record{
				"industryId": m["id"], "aarTypeId": "boxcar", "goodsId": "g", "direction": "inbound",
				"compatibleCarTypes": []string{"boxcar"}, "sessionNumber": 1, "status": "pending",
			})
			Expect(err).NotTo(HaveOccurred())
		}
		for i := 0; i < 10; i++ {
			_, err := s.Create(ctx, store.Cars, store.Record{
				"reportingMarks": "X", "reportingNumber": strconv.Itoa(i), "carType": "boxcar",
				"isInService": true, "currentIndustry": m["id"], "homeYard": m["id"],
			})
			Expect(err).NotTo(HaveOccurred())
		}

		loco, err := s.Create(ctx, store.Locomotives, store.Record{
			"reportingMarks": "L", "reportingNumber": "1", "manufacturer": "athearn", "isInService": true,
		})
		Expect(err).NotTo(HaveOccurred())

		trainRec, err := s.Create(ctx, store.Trains, store.Record{
			"name": "T", "routeId": route["id"], "sessionNumber": 1, "status": "Planned",
			"locomotiveIds": []string{loco["id"].(string)}, "maxCapacity": 3, "assignedCarIds": []string{},
		})
		Expect(err).NotTo(HaveOccurred())

		train, err := reg.Trains().GenerateSwitchList(ctx, trainRec["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(train.Status).To(Equal(model.TrainInProgress))
		Expect(len(train.AssignedCarIDs)).To(BeNumerically("<=", 3))

		assignedOrders, err := s.FindByQuery(ctx, store.CarOrders, store.Query{"status": "assigned"})
		Expect(err).NotTo(HaveOccurred())
		Expect(assignedOrders).To(HaveLen(3))
	})
})

var _ = Describe("Locomotive conflict", func() {
	It("rejects a train that reuses an active locomotive, and accepts it once the original is cancelled", func() {
		ctx := context.Background()
		s := memstore.New()
		reg := registry.New(s)

		originSt, _ := s.Create(ctx, store.Stations, store.Record{"name": "Origin"})
		termSt, _ := s.Create(ctx, store.Stations, store.Record{"name": "Term"})
		y1, _ := s.Create(ctx, store.Industries, store.Record{"name": "Y1", "stationId": originSt["id"], "isYard": true})
		y2, _ := s.Create(ctx, store.Industries, store.Record{"name": "Y2", "stationId": termSt["id"], "isYard": true})
		route, _ := s.Create(ctx, store.Routes, store.Record{
			"name": "R", "originYard": y1["id"], "terminationYard": y2["id"], "stationSequence": []string{},
		})

		l1, _ := s.Create(ctx, store.Locomotives, store.Record{"reportingMarks": "L", "reportingNumber": "1", "manufacturer": "athearn", "isInService": true})
		l2, _ := s.Create(ctx, store.Locomotives, store.Record{"reportingMarks": "L", "reportingNumber": "2", "manufacturer": "athearn", "isInService": true})

		t1, err := reg.Trains().CreateTrain(ctx, trainsvc.CreateTrainInput{
			Name: "T1", RouteID: route["id"].(string), SessionNumber: 1,
			LocomotiveIDs: []string{l1["id"].(string)}, MaxCapacity: 5,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = reg.Trains().CreateTrain(ctx, trainsvc.CreateTrainInput{
			Name: "T2", RouteID: route["id"].(string), SessionNumber: 1,
			LocomotiveIDs: []string{l1["id"].(string), l2["id"].(string)}, MaxCapacity: 5,
		})
		Expect(model.IsKind(err, model.KindConflict)).To(BeTrue())

		_, err = reg.Trains().CancelTrain(ctx, t1.ID)
		Expect(err).NotTo(HaveOccurred())

		_, err = reg.Trains().CreateTrain(ctx, trainsvc.CreateTrainInput{
			Name: "T2", RouteID: route["id"].(string), SessionNumber: 1,
			LocomotiveIDs: []string{l1["id"].(string), l2["id"].(string)}, MaxCapacity: 5,
		})
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Complete train moves cars", func() {
	It("moves setout cars to their destination and delivers their orders", func() {
		ctx := context.Background()
		s := memstore.New()
		reg := registry.New(s)

		dest, err := s.Create(ctx, store.Industries, store.Record{"name": "D", "stationId": "anywhere", "isYard": false})
		Expect(err).NotTo(HaveOccurred())

		car, err := s.Create(ctx, store.Cars, store.Record{
			"reportingMarks": "C", "reportingNumber": "1", "carType": "boxcar",
			"isInService": true, "currentIndustry": "elsewhere", "sessionsAtCurrentLocation": 3,
		})
		Expect(err).NotTo(HaveOccurred())

		order, err := s.Create(ctx, store.CarOrders, store.Record{
			"industryId": dest["id"], "aarTypeId": "boxcar", "goodsId": "g", "direction": "inbound",
			"compatibleCarTypes": []string{"boxcar"}, "sessionNumber": 1, "status": "assigned",
		})
		Expect(err).NotTo(HaveOccurred())

		carOrderID := order["id"].(string)
		train, err := s.Create(ctx, store.Trains, store.Record{
			"name": "T", "routeId": "r", "sessionNumber": 1, "status": "In Progress",
			"locomotiveIds": []string{"l"}, "maxCapacity": 5, "assignedCarIds": []string{car["id"].(string)},
			"switchList": model.SwitchList{
				Stations: []model.StationPlan{{
					StationID: "s1", StationName: "S1",
					Setouts: []model.Setout{{CarID: car["id"].(string), DestinationIndustryID: dest["id"].(string), CarOrderID: &carOrderID}},
				}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Update(ctx, store.CarOrders, order["id"].(string), store.Record{"assignedTrainId": train["id"]})
		Expect(err).NotTo(HaveOccurred())

		completed, err := reg.Trains().CompleteTrain(ctx, train["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(completed.Status).To(Equal(model.TrainCompleted))

		carAfter, err := s.FindByID(ctx, store.Cars, car["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(carAfter["currentIndustry"]).To(Equal(dest["id"]))
		Expect(carAfter["sessionsAtCurrentLocation"]).To(BeNumerically("==", 0))

		orderAfter, err := s.FindByID(ctx, store.CarOrders, order["id"].(string))
		Expect(err).NotTo(HaveOccurred())
		Expect(orderAfter["status"]).To(Equal(string(model.OrderDelivered)))
	})
})
