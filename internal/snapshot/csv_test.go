package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"date,location,dish_name,received_portions,remaining_portions,end_of_day,expiry_date\n"+
			"2025-03-06,Eastham,Lamb Curry,10,2,false,2025-03-07\n"+
			"2025-03-05,Bethnal Green,Veg Pakora,20,0,true,\n")
	writeFile(t, dir, "prep_log.csv",
		"dish_name,total_portions,processed,expiry_date\n"+
			"Lamb Curry,12,no,2025-03-08\n")
	writeFile(t, dir, "dispatch.csv",
		"dish_name,cold_room_stock\n"+
			"Veg Pakora,15\n")
	writeFile(t, dir, "dishes.csv",
		"name\nLamb Curry\nVeg Pakora\nChicken Biryani\n")
	writeFile(t, dir, "recipes.csv",
		"dish_name,cost_per_kg\nLamb Curry,9.50\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, bundle.Snapshot.Sales, 2)
	sale := bundle.Snapshot.Sales[0]
	assert.Equal(t, "Lamb Curry", sale.DishName)
	assert.Equal(t, "Eastham", sale.Location)
	assert.Equal(t, 10, sale.ReceivedPortions)
	assert.Equal(t, 2, sale.RemainingPortions)
	assert.False(t, sale.EndOfDay)
	require.NotNil(t, sale.ExpiryDate)
	assert.Equal(t, "2025-03-07", sale.ExpiryDate.Format("2006-01-02"))
	assert.Nil(t, bundle.Snapshot.Sales[1].ExpiryDate)
	assert.True(t, bundle.Snapshot.Sales[1].EndOfDay)

	require.Len(t, bundle.Snapshot.PrepLog, 1)
	assert.Equal(t, 12, bundle.Snapshot.PrepLog[0].TotalPortions)
	assert.False(t, bundle.Snapshot.PrepLog[0].Processed)

	require.Len(t, bundle.Snapshot.Dispatch, 1)
	assert.Equal(t, 15, bundle.Snapshot.Dispatch[0].ColdRoomStock)

	dishes, err := bundle.ListDishes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Lamb Curry", "Veg Pakora", "Chicken Biryani"}, dishes)
}

func TestLoadDirSalesRequired(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadDirOptionalFilesMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"date,location,dish_name,received_portions,remaining_portions,end_of_day\n"+
			"2025-03-06,Eastham,Lamb Curry,10,2,false\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Empty(t, bundle.Snapshot.PrepLog)
	assert.Empty(t, bundle.Snapshot.Dispatch)
	assert.Empty(t, bundle.CostPerKg)
}

func TestLoadDirSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"date,location,dish_name,received_portions,remaining_portions,end_of_day\n"+
			"not-a-date,Eastham,Lamb Curry,10,2,false\n"+
			",Eastham,Lamb Curry,10,2,false\n"+
			"2025-03-06,Eastham,,10,2,false\n"+
			"2025-03-06,Eastham,Lamb Curry,10,2,false\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, bundle.Snapshot.Sales, 1)
	assert.Equal(t, "Lamb Curry", bundle.Snapshot.Sales[0].DishName)
}

func TestLoadDirDishFallbackFromData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"date,location,dish_name,received_portions,remaining_portions,end_of_day\n"+
			"2025-03-06,Eastham,Veg Pakora,10,2,false\n"+
			"2025-03-06,Eastham,veg pakora,5,1,false\n")
	writeFile(t, dir, "prep_log.csv",
		"dish_name,total_portions,processed\nChicken Biryani,8,false\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	// Sorted union of names seen in the data, case-insensitive dedupe
	assert.Equal(t, []string{"Chicken Biryani", "Veg Pakora"}, bundle.Dishes)
}

func TestLoadDirHeaderAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"Sale Date,Location,Dish,Received,Remaining,EOD\n"+
			"06/03/2025,Eastham,Lamb Curry,10,2,yes\n")

	bundle, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, bundle.Snapshot.Sales, 1)
	sale := bundle.Snapshot.Sales[0]
	assert.Equal(t, "2025-03-06", sale.Date.Format("2006-01-02"))
	assert.Equal(t, 10, sale.ReceivedPortions)
	assert.True(t, sale.EndOfDay)
}

func TestEstimateCost(t *testing.T) {
	bundle := &Bundle{CostPerKg: map[string]float64{"lamb curry": 9.5}}

	cost, err := bundle.EstimateCost(context.Background(), "Lamb Curry", 2)
	require.NoError(t, err)
	assert.InDelta(t, 19, cost, 1e-9)

	cost, err = bundle.EstimateCost(context.Background(), "Unknown Dish", 2)
	require.NoError(t, err)
	assert.Zero(t, cost)
}
