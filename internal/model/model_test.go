package model

import "testing"

func TestCarDemandEntryFires(t *testing.T) {
	entry := CarDemandEntry{Frequency: 3}
	cases := []struct {
		session int
		want    bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{6, true},
		{7, false},
	}
	for _, c := range cases {
		if got := entry.Fires(c.session); got != c.want {
			t.Errorf("Fires(%d) = %v, want %v", c.session, got, c.want)
		}
	}
}

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderAssigned, true},
		{OrderPending, OrderDelivered, true},
		{OrderPending, OrderInTransit, false},
		{OrderAssigned, OrderPending, true},
		{OrderInTransit, OrderAssigned, true},
		{OrderDelivered, OrderPending, false},
		{OrderDelivered, OrderAssigned, false},
	}
	for _, c := range cases {
		if got := CanTransitionOrder(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionOrder(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCanTransitionTrain(t *testing.T) {
	cases := []struct {
		from, to TrainStatus
		want     bool
	}{
		{TrainPlanned, TrainInProgress, true},
		{TrainPlanned, TrainCancelled, true},
		{TrainInProgress, TrainCompleted, true},
		{TrainInProgress, TrainCancelled, true},
		{TrainCompleted, TrainCancelled, false},
		{TrainCancelled, TrainPlanned, false},
	}
	for _, c := range cases {
		if got := CanTransitionTrain(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionTrain(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsDuplicateOf(t *testing.T) {
	base := CarOrder{IndustryID: "ind-1", AarTypeID: "box", SessionNumber: 2, Status: OrderPending}
	dup := CarOrder{IndustryID: "ind-1", AarTypeID: "box", SessionNumber: 2, Status: OrderPending}
	if !dup.IsDuplicateOf(&base) {
		t.Fatal("expected duplicate")
	}
	notDup := CarOrder{IndustryID: "ind-2", AarTypeID: "box", SessionNumber: 2, Status: OrderPending}
	if notDup.IsDuplicateOf(&base) {
		t.Fatal("expected no duplicate across industries")
	}
	delivered := CarOrder{IndustryID: "ind-1", AarTypeID: "box", SessionNumber: 2, Status: OrderDelivered}
	if dup.IsDuplicateOf(&delivered) {
		t.Fatal("delivered orders are never duplicates")
	}
}

func TestAssignableCar(t *testing.T) {
	order := &CarOrder{AarTypeID: "boxcar", Status: OrderPending}
	goodCar := &Car{CarType: "boxcar", IsInService: true}
	if reasons := AssignableCar(order, goodCar, true); len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}

	badCar := &Car{CarType: "flatcar", IsInService: false}
	reasons := AssignableCar(order, badCar, true)
	if len(reasons) != 2 {
		t.Fatalf("expected 2 accumulated reasons, got %v", reasons)
	}

	if reasons := AssignableCar(order, nil, false); len(reasons) != 1 {
		t.Fatalf("expected single not-exists reason, got %v", reasons)
	}
}

func TestLocomotiveValidateDCC(t *testing.T) {
	addr := 42
	loco := &Locomotive{
		ReportingMarks:  "ABC",
		ReportingNumber: "123",
		Manufacturer:    ManufacturerAtlas,
		IsDCC:           true,
		DCCAddress:      &addr,
	}
	if err := loco.Validate(LocomotiveDeps{}, ""); err != nil {
		t.Fatalf("expected valid locomotive, got %v", err)
	}

	loco.IsDCC = false
	if err := loco.Validate(LocomotiveDeps{}, ""); err == nil {
		t.Fatal("expected error for dccAddress set while isDCC is false")
	}
}

func TestLocomotiveDCCAddressTaken(t *testing.T) {
	addr1, addr2 := 10, 20
	locos := []Locomotive{
		{ID: "l1", IsDCC: true, DCCAddress: &addr1},
		{ID: "l2", IsDCC: true, DCCAddress: &addr2},
	}
	if !LocomotiveDCCAddressTaken(locos, 10, "l2") {
		t.Fatal("expected l1 to already claim address 10")
	}
	if LocomotiveDCCAddressTaken(locos, 10, "l1") {
		t.Fatal("l1 excluding itself should not conflict")
	}
}

func TestSnapshotValidate(t *testing.T) {
	good := &Snapshot{SessionNumber: 1, Cars: []CarSnapshotEntry{{ID: "c1", SessionsAtCurrentLocation: 0}}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}

	bad := &Snapshot{SessionNumber: 0}
	if err := bad.Validate(); !IsKind(err, KindSnapshotInvalid) {
		t.Fatalf("expected SnapshotInvalid, got %v", err)
	}

	badCar := &Snapshot{SessionNumber: 1, Cars: []CarSnapshotEntry{{ID: "c1", SessionsAtCurrentLocation: -1}}}
	if err := badCar.Validate(); !IsKind(err, KindSnapshotInvalid) {
		t.Fatalf("expected SnapshotInvalid for negative counter, got %v", err)
	}
}
