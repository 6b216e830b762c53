// Package eflsv1 provides the messages of link.proto as run time descriptors.
// Encode and decode them with dynamicpb and the proto package.
package eflsv1

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// File is the descriptor of efls/v1/link.proto.
var File protoreflect.FileDescriptor

// Message descriptors of File.
var (
	AircraftLink  protoreflect.MessageDescriptor
	Aircraft      protoreflect.MessageDescriptor
	WaypointGroup protoreflect.MessageDescriptor
	Waypoint      protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(linkProto(), nil)
	if err != nil {
		panic("efls/v1/link.proto: " + err.Error())
	}
	File = fd

	msgs := fd.Messages()
	AircraftLink = msgs.ByName("AircraftLink")
	Aircraft = msgs.ByName("Aircraft")
	WaypointGroup = msgs.ByName("WaypointGroup")
	Waypoint = msgs.ByName("Waypoint")
}

// linkProto mirrors link.proto; keep the two in sync.
func linkProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("efls/v1/link.proto"),
		Package: proto.String("efls.v1"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/autopeer-io/efls/api/proto/efls/v1;eflsv1"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("AircraftLink"),
				Field: []*descriptorpb.FieldDescriptorProto{
					repeated("aircrafts", 1, ".efls.v1.Aircraft"),
					repeated("waypoint_groups", 2, ".efls.v1.WaypointGroup"),
				},
			},
			{
				Name: proto.String("Aircraft"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("lat", 1, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("lon", 2, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("bearing", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("speed", 4, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("altitude", 5, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("wind_speed", 6, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("wind_direction", 7, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("motor_current", 8, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("motor_throttle", 9, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("timestamp", 10, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				},
			},
			{
				Name: proto.String("WaypointGroup"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					repeated("waypoint", 2, ".efls.v1.Waypoint"),
				},
			},
			{
				Name: proto.String("Waypoint"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar("lat", 1, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("lon", 2, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					scalar("alt", 3, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
				},
			},
		},
	}
}

func scalar(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(name string, num int32, typeName string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: proto.String(typeName),
	}
}
