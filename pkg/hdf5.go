package bbcreco

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type EventDataHDF5 struct {
	evt_number int32
	run_number int32
}

type ArmHDF5 struct {
	evt_number int32
	arm        int32
	nhit       int32
	charge     float32
	time       float32
	earliest   float32
}

type VertexHDF5 struct {
	evt_number int32
	calibrated int32
	z          float32
	z_err      float32
	t0         float32
	t0_err     float32
}

type PhaseHDF5 struct {
	run_number int32
	board      int32
	phase      int32
}

var errInvalidDataspace = errors.New("dataset has no valid dataspace")

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func newChunkedPropList(chunks []uint) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if err := plist.SetDeflate(configuration.CompressionLevel); err != nil {
		return nil, err
	}
	return plist, nil
}

// create2dArray creates an extendible events x nColumns float32 dataset.
func create2dArray(group *hdf5.Group, name string, nColumns int) (*hdf5.Dataset, error) {
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	dims := []uint{0, uint(nColumns)}
	maxDims := []uint{uint(unlimitedDims), uint(nColumns)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := newChunkedPropList([]uint{1024, uint(nColumns)})
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_FLOAT, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := newChunkedPropList([]uint{32768})
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array)
}

// writeArrayToTable appends data at the end of a 1d table.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T) error {
	length := uint(len(*data))
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	space := dataset.Space()
	if space == nil {
		return errInvalidDataspace
	}
	dimsGot, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		return err
	}
	rowsInFile := dimsGot[0]
	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	if filespace == nil {
		return errInvalidDataspace
	}
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{rowsInFile}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// write2dArray stores one row of a 2d dataset at row evtCounter.
func write2dArray(dataset *hdf5.Dataset, data *[]float32, evtCounter int) error {
	nColumns := uint(len(*data))
	if err := dataset.Resize([]uint{uint(evtCounter) + 1, nColumns}); err != nil {
		return fmt.Errorf("error extending array: %w", err)
	}
	filespace := dataset.Space()
	if filespace == nil {
		return errInvalidDataspace
	}
	defer filespace.Close()

	count := []uint{1, nColumns}
	if err := filespace.SelectHyperslab([]uint{uint(evtCounter), 0}, nil, count, nil); err != nil {
		return err
	}
	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
